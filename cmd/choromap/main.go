package main

import (
	"fmt"
	"os"

	"choromap"
	"choromap/config"
	"choromap/generate"
	"choromap/logging"
)

var log = logging.NewLogger("")

func printCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Println("Available commands:")
	fmt.Println("\tgenerate")
	fmt.Println("\tconvert")
	fmt.Println("\tversion")
}

func main() {
	if len(os.Args) <= 1 {
		printCmds()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		opts := config.ParseGenerate(os.Args[2:])
		conf, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal(err)
		}
		if err := generate.Run(conf, opts); err != nil {
			log.Fatal(err)
		}
	case "convert":
		opts := config.ParseConvert(os.Args[2:])
		conf, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal(err)
		}
		if err := generate.Convert(conf); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Println(choromap.Version)
	default:
		printCmds()
		log.Fatalf("invalid command: '%s'", os.Args[1])
	}
}
