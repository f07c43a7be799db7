// Package prodsearch provides an in-process Go API for the prodsearch hybrid
// product ranking engine, backed by Redis/Valkey or SQLite.
//
// # Pure ranking
//
// Rank works on caller-supplied products and a pre-computed query vector:
//
//	results, _ := prodsearch.Rank(prodsearch.Query{
//	    Text:      "gaming laptop",
//	    Embedding: vec,
//	    MaxPrice:  90000,
//	    Mode:      prodsearch.ModeWeightedBlend,
//	}, products)
//
// # Stored catalog
//
//	client, _ := prodsearch.New(ctx,
//	    prodsearch.WithSQLite("products.db"),
//	    prodsearch.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//	_, _ = client.Ingest(ctx, products)
//	results, _ := client.Search(ctx, prodsearch.Query{Text: "gaming laptop"})
//	rec, _ := client.Recommend(ctx, "I need a phone with a good camera")
package prodsearch
