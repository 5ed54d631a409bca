// Package civicdex embeds the civic document search engine in a Go program.
//
// A Client pulls documents from the Chicago open data portal and the City
// Clerk legislation API, keeps them in memory and answers lexical searches,
// category-diverse selections and templated questions over them.
//
//	client, _ := civicdex.New(ctx,
//	    civicdex.WithOpenData(civicdex.DefaultOpenDataURL, token, "building_permits"),
//	    civicdex.WithMemoryCache(15*time.Minute),
//	)
//	defer client.Close()
//	_, _ = client.Load(ctx)
//	hits, _ := client.Search(ctx, civicdex.Query{Text: "restaurant license"})
//
// Nothing is fetched until Load or Refresh is called. Search over an empty
// client returns no results rather than an error.
package civicdex
