package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/modelport/modelport/pkg/cache"
	"github.com/modelport/modelport/pkg/factory"
	"github.com/modelport/modelport/pkg/llm"
)

var embedFlags struct {
	model string
}

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed texts",
	Long: `Embed each argument and print the vectors as JSON, one array per text.

Examples:
  modelport embed "first text" "second text"
  modelport embed --provider postgresml --config modelport.yaml "some text"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVarP(&embedFlags.model, "model", "m", "", "model name (uses config if not specified)")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cc := e.clientConfig(embedFlags.model)
	if embedFlags.model == "" && provider != "postgresml" {
		cc.Model = e.cfg.OpenAI.EmbeddingModel
	}

	model, err := factory.New(factory.WithLogger(e.logger)).CreateEmbeddingModel(e.ctx, cc)
	if err != nil {
		return err
	}
	if c, ok := model.(io.Closer); ok {
		defer c.Close()
	}
	model, release, err := e.withEmbeddingCache(model, cc.Model)
	if err != nil {
		return err
	}
	defer release()

	resp, err := model.Call(e.ctx, llm.NewEmbeddingRequest(args))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if err := enc.Encode(resp.Vectors()); err != nil {
		return fmt.Errorf("failed to write vectors: %w", err)
	}
	return nil
}

// withEmbeddingCache wraps model with the configured cache. release closes the store.
func (e *env) withEmbeddingCache(model llm.EmbeddingModel, modelName string) (llm.EmbeddingModel, func(), error) {
	var store cache.Store
	release := func() {}

	switch e.cfg.Cache.Backend {
	case "":
		return model, release, nil
	case "memory":
		store = cache.NewMemoryStore()
	case "redis":
		rs, err := cache.DialRedis(e.ctx, e.cfg.Cache.RedisAddr, e.cfg.Cache.Password, e.cfg.Cache.DB)
		if err != nil {
			return nil, nil, err
		}
		store = rs
		release = func() { _ = rs.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", e.cfg.Cache.Backend)
	}

	return cache.NewEmbeddingModel(model, store,
		cache.WithLogger(e.logger),
		cache.WithTTL(e.cfg.Cache.TTL),
		cache.WithPrefix(e.cfg.Cache.Prefix),
		cache.WithModel(modelName)), release, nil
}
