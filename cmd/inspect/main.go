package main

// inspect dumps the raw keyspace of a triaged database. Useful when
// debugging index drift between conversations and their active/last
// pointers without going through the API.

import (
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

func main() {
	var (
		path   = flag.String("db", "", "pebble database path")
		prefix = flag.String("prefix", "", "key prefix filter (cust:, ident:, conv:, convactive:, convlast:, int:, decision:, pending:)")
		keys   = flag.Bool("keys", false, "print keys only")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "-db required")
		os.Exit(2)
	}

	db, err := pebble.Open(*path, &pebble.Options{ReadOnly: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	opts := &pebble.IterOptions{}
	if *prefix != "" {
		opts.LowerBound = []byte(*prefix)
		opts.UpperBound = append([]byte(*prefix), 0xff)
	}
	iter, err := db.NewIter(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iterator failed: %v\n", err)
		os.Exit(1)
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		if *keys {
			fmt.Println(string(iter.Key()))
		} else {
			fmt.Printf("%s\t%s\n", iter.Key(), iter.Value())
		}
		n++
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", n)
}
