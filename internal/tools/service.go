package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"filmscout/internal/logging"
	"filmscout/internal/services"
	"filmscout/internal/tmdb"
)

// Tool names as exposed over HTTP and MCP.
const (
	ToolSearchTitle        = "search_title"
	ToolGetDetails         = "get_details"
	ToolGetRecommendations = "get_recommendations"
	ToolDiscover           = "discover"
)

// Names lists the tools in registration order.
func Names() []string {
	return []string{ToolSearchTitle, ToolGetDetails, ToolGetRecommendations, ToolDiscover}
}

// Catalog is the subset of the catalog client the tools depend on.
type Catalog interface {
	Search(ctx context.Context, mediaType, query string, year int, language string) (*tmdb.Page, error)
	Details(ctx context.Context, mediaType string, id int64) (*tmdb.Details, error)
	Recommendations(ctx context.Context, mediaType string, id int64) (*tmdb.Page, error)
	Discover(ctx context.Context, query tmdb.DiscoverQuery) (*tmdb.Page, error)
	ResolveGenreIDs(ctx context.Context, mediaType string, names []string) ([]int, error)
}

// Recorder receives the outcome of every tool call made through Call.
type Recorder interface {
	RecordToolCall(tool string, latency time.Duration, success bool)
	RecordError(kind services.ErrorKind, message string)
}

// Service adapts catalog operations into the four tools.
type Service struct {
	catalog   Catalog
	logger    *slog.Logger
	recorders []Recorder
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder adds a recorder. Recorders accumulate across options.
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorders = append(s.recorders, recorder)
		}
	}
}

// New constructs a Service over catalog.
func New(catalog Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "tools")
	return s
}

// SearchTitle finds titles by name and returns at most ten of them.
func (s *Service) SearchTitle(ctx context.Context, args SearchArgs) ([]NormalizedTitle, error) {
	if err := args.normalize(); err != nil {
		return nil, err
	}
	page, err := s.catalog.Search(ctx, args.Type, args.Query, args.Year, args.Language)
	if err != nil {
		return nil, err
	}
	return normalizeTitles(page.Results, args.Type, searchLimit), nil
}

// GetDetails returns the full description of one title.
func (s *Service) GetDetails(ctx context.Context, args DetailsArgs) (*NormalizedDetails, error) {
	if err := args.normalize(); err != nil {
		return nil, err
	}
	details, err := s.catalog.Details(ctx, args.Type, args.ID)
	if err != nil {
		return nil, err
	}
	normalized := normalizeDetails(details, args.Type)
	return &normalized, nil
}

// GetRecommendations returns up to ten titles similar to the given one, each
// with a reason derived from the source title.
func (s *Service) GetRecommendations(ctx context.Context, args RecommendationArgs) ([]RecommendationItem, error) {
	if err := args.normalize(); err != nil {
		return nil, err
	}
	source, err := s.catalog.Details(ctx, args.Type, args.ID)
	if err != nil {
		return nil, err
	}
	page, err := s.catalog.Recommendations(ctx, args.Type, args.ID)
	if err != nil {
		return nil, err
	}
	return normalizeRecommendations(source, page.Results), nil
}

// Discover browses by genre names, year, language, and sort order. Genre
// names the catalog does not know are ignored.
func (s *Service) Discover(ctx context.Context, args DiscoverArgs) ([]NormalizedTitle, error) {
	if err := args.normalize(); err != nil {
		return nil, err
	}
	query := tmdb.DiscoverQuery{
		MediaType: args.Type,
		Year:      args.Year,
		Language:  args.Language,
		SortBy:    args.SortBy,
	}
	if len(args.Genres) > 0 {
		ids, err := s.catalog.ResolveGenreIDs(ctx, args.Type, args.Genres)
		if err != nil {
			return nil, err
		}
		if len(ids) < len(args.Genres) {
			logging.WithContext(ctx, s.logger).Debug("some genres did not resolve",
				logging.Any("requested", args.Genres),
				logging.Int("resolved", len(ids)),
			)
		}
		query.GenreIDs = ids
	}
	page, err := s.catalog.Discover(ctx, query)
	if err != nil {
		return nil, err
	}
	return normalizeTitles(page.Results, args.Type, discoverLimit), nil
}

// Result is the success body of a tool call. List tools fill Results and
// get_details fills Result.
type Result struct {
	Results any `json:"results,omitempty"`
	Result  any `json:"result,omitempty"`
}

// Call decodes raw JSON arguments, runs the named tool, and records the
// outcome. Empty arguments are treated as an empty object.
func (s *Service) Call(ctx context.Context, name string, raw json.RawMessage) (Result, error) {
	if !known(name) {
		return Result{}, invalid(name, "tool", "%q is not a known tool", name)
	}
	ctx = services.WithTool(ctx, name)
	logger := logging.WithContext(ctx, s.logger)

	start := s.now()
	result, err := s.run(ctx, name, raw)
	latency := s.now().Sub(start)
	s.record(name, latency, err)

	if err != nil {
		kind := services.KindOf(err)
		attrs := []logging.Attr{
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.Duration("latency", latency),
			logging.Error(err),
		}
		if kind == services.KindValidation {
			logger.Info("tool rejected arguments", logging.Args(attrs...)...)
		} else {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, services.UserMessage(kind)))
			logging.WarnWithContext(logger, "tool call failed", "tool_failed", attrs...)
		}
		return Result{}, err
	}
	logger.Debug("tool call completed", logging.Duration("latency", latency))
	return result, nil
}

func (s *Service) run(ctx context.Context, name string, raw json.RawMessage) (Result, error) {
	switch name {
	case ToolSearchTitle:
		var args SearchArgs
		if err := decodeArgs(name, raw, &args); err != nil {
			return Result{}, err
		}
		titles, err := s.SearchTitle(ctx, args)
		return Result{Results: titles}, err
	case ToolGetDetails:
		var args DetailsArgs
		if err := decodeArgs(name, raw, &args); err != nil {
			return Result{}, err
		}
		details, err := s.GetDetails(ctx, args)
		if err != nil {
			return Result{}, err
		}
		return Result{Result: details}, nil
	case ToolGetRecommendations:
		var args RecommendationArgs
		if err := decodeArgs(name, raw, &args); err != nil {
			return Result{}, err
		}
		items, err := s.GetRecommendations(ctx, args)
		return Result{Results: items}, err
	default:
		var args DiscoverArgs
		if err := decodeArgs(name, raw, &args); err != nil {
			return Result{}, err
		}
		titles, err := s.Discover(ctx, args)
		return Result{Results: titles}, err
	}
}

func (s *Service) record(name string, latency time.Duration, err error) {
	for _, r := range s.recorders {
		r.RecordToolCall(name, latency, err == nil)
		if err != nil {
			r.RecordError(services.KindOf(err), name+": "+err.Error())
		}
	}
}

func known(name string) bool {
	for _, candidate := range Names() {
		if name == candidate {
			return true
		}
	}
	return false
}

func decodeArgs(tool string, raw json.RawMessage, target any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalid(tool, typeErr.Field, "has the wrong type (want %s)", typeErr.Type)
		}
		return invalid(tool, "arguments", "must be a JSON object")
	}
	return nil
}

// ToolError is the failure envelope returned to tool callers.
type ToolError struct {
	Kind    services.ErrorKind `json:"error"`
	Message string             `json:"message"`
}

func (e ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Envelope renders err for a tool caller. Argument problems keep their
// field-level text; every other kind gets the plain-language message so
// transport details never leak.
func Envelope(err error) ToolError {
	kind := services.KindOf(err)
	if kind == services.KindValidation {
		var argErr *argumentError
		if errors.As(err, &argErr) {
			return ToolError{Kind: kind, Message: argErr.Error()}
		}
	}
	return ToolError{Kind: kind, Message: services.UserMessage(kind)}
}
