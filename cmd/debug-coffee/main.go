package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <file.coffee>", os.Args[0])
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	root, err := coffee.Parse(string(data))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== AST ===")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n=== SYMBOLS ===")
	for _, s := range symbols.NewParser(symbols.DefaultOptions()).DocumentSymbols(string(data)) {
		fmt.Printf("  %-12s %-40s %-30s (%d:%d-%d:%d)\n", s.Kind, s.Name, s.ContainerName,
			s.Range.Start.Line, s.Range.Start.Character, s.Range.End.Line, s.Range.End.Character)
	}

	fmt.Println("\n=== EXPORTS ===")
	for _, s := range symbols.NewParser(symbols.DefaultOptions()).ExportedSymbols(string(data)) {
		fmt.Printf("  %s\n", s.QualifiedName())
	}
}
