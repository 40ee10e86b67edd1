package postgresml

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/modelport/modelport/pkg/llm"
)

// ProviderName is the name this package registers under
const ProviderName = "postgresml"

// DefaultConcurrency bounds the pgml.embed queries run at once for a single request
const DefaultConcurrency = 4

const sampleText = "Hello World"

const (
	embedArraySQL  = "SELECT pgml.embed($1, $2, $3::JSONB)"
	embedVectorSQL = "SELECT pgml.embed($1, $2, $3::JSONB)::vector::text"
)

// Querier is the part of pgx the model needs. *pgxpool.Pool, *pgx.Conn and pgx.Tx satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier            = (*pgxpool.Pool)(nil)
	_ llm.EmbeddingModel = (*EmbeddingModel)(nil)
	_ io.Closer          = (*EmbeddingModel)(nil)
)

// Connect opens a connection pool for dsn and checks the database is reachable
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return pool, nil
}

type settings struct {
	logger          *zap.Logger
	defaults        *EmbeddingOptions
	createExtension bool
	concurrency     int
	ownsDB          bool
}

// Option configures an EmbeddingModel
type Option func(*settings)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultOptions sets the options every request starts from
func WithDefaultOptions(o *EmbeddingOptions) Option {
	return func(s *settings) {
		s.defaults = o
	}
}

// WithCreateExtension makes Init create the pgml extension (and vector, when used)
func WithCreateExtension(create bool) Option {
	return func(s *settings) {
		s.createExtension = create
	}
}

// WithOwnedConnection makes Close close the database handle
func WithOwnedConnection() Option {
	return func(s *settings) {
		s.ownsDB = true
	}
}

// WithConcurrency bounds the queries run in parallel for one request
func WithConcurrency(n int) Option {
	return func(s *settings) {
		s.concurrency = n
	}
}

// EmbeddingModel implements llm.EmbeddingModel with pgml.embed
type EmbeddingModel struct {
	db              Querier
	defaults        *EmbeddingOptions
	createExtension bool
	concurrency     int
	ownsDB          bool
	logger          *zap.Logger

	mu         sync.Mutex
	dimensions int
}

// NewEmbeddingModel creates a model running its queries on db
func NewEmbeddingModel(db Querier, opts ...Option) (*EmbeddingModel, error) {
	if db == nil {
		return nil, fmt.Errorf("postgresml: a database connection is required")
	}
	s := &settings{logger: zap.NewNop(), concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(s)
	}

	defaults, err := llm.MergeOptions(DefaultEmbeddingOptions(), s.defaults)
	if err != nil {
		return nil, err
	}
	if err := defaults.validate(); err != nil {
		return nil, err
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}

	return &EmbeddingModel{
		db:              db,
		defaults:        defaults,
		createExtension: s.createExtension,
		concurrency:     s.concurrency,
		ownsDB:          s.ownsDB,
		logger:          s.logger,
	}, nil
}

// Init prepares the database. It creates the extensions only when asked to.
func (m *EmbeddingModel) Init(ctx context.Context) error {
	if !m.createExtension {
		return nil
	}
	if _, err := m.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS pgml"); err != nil {
		return fmt.Errorf("failed to create pgml extension: %w", err)
	}
	if m.defaults.VectorType == VectorTypePgVector {
		if _, err := m.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}
	m.logger.Info("postgresml extensions ready", zap.String("vector_type", string(m.defaults.VectorType)))
	return nil
}

// DefaultOptions returns a copy of the options every request starts from
func (m *EmbeddingModel) DefaultOptions() *EmbeddingOptions {
	return m.defaults.Clone()
}

// Call embeds every input with its own query. Queries run concurrently, bounded by
// the configured concurrency, and the vectors keep the input order.
func (m *EmbeddingModel) Call(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, llm.ErrEmptyPrompt
	}
	rt, err := toEmbeddingOptions(req.Options)
	if err != nil {
		return nil, err
	}
	opts, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	kwargs, err := json.Marshal(opts.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transformer kwargs: %w", err)
	}
	if opts.Kwargs == nil {
		kwargs = []byte("{}")
	}

	m.logger.Debug("embedding with pgml",
		zap.String("transformer", opts.Transformer),
		zap.String("vector_type", string(opts.VectorType)),
		zap.Int("inputs", len(req.Inputs)))

	vectors := make([][]float32, len(req.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, input := range req.Inputs {
		g.Go(func() error {
			vector, err := m.embed(gctx, opts, input, string(kwargs))
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &llm.EmbeddingResponse{
		Model:      opts.Transformer,
		Embeddings: make([]llm.Embedding, 0, len(vectors)),
	}
	for i, vector := range vectors {
		resp.Embeddings = append(resp.Embeddings, llm.Embedding{Index: i, Vector: vector})
	}
	return resp, nil
}

func (m *EmbeddingModel) embed(ctx context.Context, opts *EmbeddingOptions, text, kwargs string) ([]float32, error) {
	if opts.VectorType == VectorTypePgVector {
		var literal string
		if err := m.db.QueryRow(ctx, embedVectorSQL, opts.Transformer, text, kwargs).Scan(&literal); err != nil {
			return nil, fmt.Errorf("pgml.embed failed: %w", err)
		}
		return parseVector(literal)
	}

	var vector []float32
	if err := m.db.QueryRow(ctx, embedArraySQL, opts.Transformer, text, kwargs).Scan(&vector); err != nil {
		return nil, fmt.Errorf("pgml.embed failed: %w", err)
	}
	return vector, nil
}

// parseVector reads the text form of a pgvector value, e.g. "[0.1,0.2,0.3]"
func parseVector(literal string) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal([]byte(literal), &vector); err != nil {
		return nil, fmt.Errorf("invalid vector %q: %w", literal, err)
	}
	return vector, nil
}

// Embed returns the vector for a single text
func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.Call(ctx, llm.NewEmbeddingRequest([]string{text}))
	if err != nil {
		return nil, err
	}
	return resp.First(), nil
}

// EmbedDocuments embeds the documents' formatted content, in order
func (m *EmbeddingModel) EmbedDocuments(ctx context.Context, docs []llm.Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	inputs := make([]string, 0, len(docs))
	for _, doc := range docs {
		inputs = append(inputs, doc.FormattedContent(m.defaults.MetadataMode))
	}
	resp, err := m.Call(ctx, llm.NewEmbeddingRequest(inputs))
	if err != nil {
		return nil, err
	}
	return resp.Vectors(), nil
}

// Dimensions embeds a sample text once and remembers the vector size
func (m *EmbeddingModel) Dimensions(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimensions > 0 {
		return m.dimensions, nil
	}

	vector, err := m.Embed(ctx, sampleText)
	if err != nil {
		return 0, fmt.Errorf("failed to detect embedding dimensions: %w", err)
	}
	m.dimensions = len(vector)
	return m.dimensions, nil
}

// Health runs a trivial query
func (m *EmbeddingModel) Health(ctx context.Context) error {
	var one int
	if err := m.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgresml health check failed: %w", err)
	}
	return nil
}

// Close releases the database handle when the model owns it. Other handles are left open.
func (m *EmbeddingModel) Close() error {
	if !m.ownsDB {
		return nil
	}
	if c, ok := m.db.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
