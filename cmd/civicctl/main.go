// Command civicctl searches and questions Chicago civic records from the
// terminal. It runs the engine in process and loads live data on each call.
package main

import "os"

func main() {
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
