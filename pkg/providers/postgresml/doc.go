// Package postgresml implements llm.EmbeddingModel on top of PostgresML.
//
// Embeddings are computed inside the database by the pgml.embed function, so the
// model only needs a Querier: a *pgxpool.Pool, a *pgx.Conn or a transaction.
//
//	pool, err := postgresml.Connect(ctx, "postgres://postgres@localhost:5433/postgresml")
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	model, err := postgresml.NewEmbeddingModel(pool,
//		postgresml.WithDefaultOptions(&postgresml.EmbeddingOptions{Transformer: "intfloat/e5-small"}),
//		postgresml.WithCreateExtension(true))
//	if err != nil {
//		return err
//	}
//	if err := model.Init(ctx); err != nil {
//		return err
//	}
//	vector, err := model.Embed(ctx, "Hello World")
package postgresml
