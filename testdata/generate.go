//go:build ignore

// Generates users.parquet and users.parquet.zst, sample datasets for
// trying the CLI: go run generate.go
package main

import (
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"
)

type User struct {
	ID     int64   `parquet:"id"`
	Name   string  `parquet:"name"`
	Age    int32   `parquet:"age"`
	City   string  `parquet:"city,optional"`
	Active bool    `parquet:"active"`
	Score  float64 `parquet:"score"`
}

func main() {
	users := []User{
		{ID: 1, Name: "alice", Age: 30, City: "New York", Active: true, Score: 95.5},
		{ID: 2, Name: "bob", Age: 25, City: "Atlanta", Active: false, Score: 82.3},
		{ID: 3, Name: "charlie", Age: 35, City: "New York", Active: true, Score: 88.7},
		{ID: 4, Name: "diana", Age: 28, Active: true, Score: 91.2},
		{ID: 5, Name: "eve", Age: 42, City: "Atlanta", Active: false, Score: 76.8},
	}

	if err := parquet.WriteFile("users.parquet", users); err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile("users.parquet")
	if err != nil {
		log.Fatal(err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("users.parquet.zst", enc.EncodeAll(data, nil), 0o644); err != nil {
		log.Fatal(err)
	}

	log.Println("Generated users.parquet and users.parquet.zst with 5 users")
}
