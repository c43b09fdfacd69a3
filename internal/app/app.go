package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"claim-assistant/handler"
	"claim-assistant/internal/auth"
	"claim-assistant/internal/devserver"
	"claim-assistant/internal/integrations/mindstudio"
	"claim-assistant/internal/integrations/objectstore"
	"claim-assistant/internal/integrations/openai"
	"claim-assistant/internal/integrations/paramstore"
	"claim-assistant/internal/integrations/queue"
	"claim-assistant/internal/integrations/redislock"
	"claim-assistant/internal/logger"
	"claim-assistant/internal/repository"
	"claim-assistant/internal/repository/gormstore"
	"claim-assistant/internal/usecase"
)

// Store is everything the usecases need from persistence. Both the gorm and
// the DynamoDB implementations satisfy it.
type Store interface {
	usecase.InterviewStore
	usecase.RecordStore
	usecase.DocumentStore
}

// secretSource is satisfied by *paramstore.Secret.
type secretSource interface {
	Value(ctx context.Context) (string, error)
}

// Builder constructs handlers on demand, sharing clients between them.
// Each Lambda only builds what its handler needs.
type Builder struct {
	cfg Config
	log *logger.Logger

	awsCfg    *aws.Config
	params    *paramstore.Client
	store     Store
	verifier  *auth.Verifier
	msClient  *mindstudio.Client
	oaClient  *openai.Client
	closeFunc []func()
}

func NewBuilder(cfg Config, log *logger.Logger) (*Builder, error) {
	if log == nil {
		return nil, errors.New("app: logger must not be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, log: log}, nil
}

// Close releases connections opened while building.
func (b *Builder) Close() {
	for i := len(b.closeFunc) - 1; i >= 0; i-- {
		b.closeFunc[i]()
	}
	b.closeFunc = nil
}

func (b *Builder) awsConfig(ctx context.Context) (aws.Config, error) {
	if b.awsCfg != nil {
		return *b.awsCfg, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if b.cfg.AWSEndpointURL != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(b.cfg.AWSEndpointURL))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("app: load aws config: %w", err)
	}
	b.awsCfg = &cfg
	return cfg, nil
}

// secret resolves one credential: from SSM when PARAM_PREFIX is set,
// otherwise from the plain environment value.
func (b *Builder) secret(ctx context.Context, param, envValue, envName string) (secretSource, error) {
	if b.cfg.ParamPrefix == "" {
		if envValue == "" {
			return nil, fmt.Errorf("app: %s is not set and PARAM_PREFIX is empty", envName)
		}
		return paramstore.StaticSecret(envValue), nil
	}
	if b.params == nil {
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		params, err := paramstore.New(ssm.NewFromConfig(awsCfg), b.cfg.ParamPrefix)
		if err != nil {
			return nil, err
		}
		b.params = params
	}
	return paramstore.NewSecret(b.params, param)
}

func (b *Builder) tokenVerifier(ctx context.Context) (*auth.Verifier, error) {
	if b.verifier != nil {
		return b.verifier, nil
	}
	secret, err := b.secret(ctx, paramJWTSecret, b.cfg.JWTSecret, "JWT_SECRET")
	if err != nil {
		return nil, err
	}
	v, err := auth.NewVerifier(secret, b.cfg.JWTAudience)
	if err != nil {
		return nil, err
	}
	b.verifier = v
	return v, nil
}

// Store opens the configured persistence backend.
func (b *Builder) Store(ctx context.Context) (Store, error) {
	if b.store != nil {
		return b.store, nil
	}
	switch b.cfg.StoreDriver {
	case StoreDriverDynamoDB:
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		st, err := repository.New(dynamodb.NewFromConfig(awsCfg), b.cfg.TableName)
		if err != nil {
			return nil, err
		}
		b.store = st
	default:
		dsn, err := b.secret(ctx, paramDatabaseURL, b.cfg.DatabaseURL, "DATABASE_URL")
		if err != nil {
			return nil, err
		}
		url, err := dsn.Value(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: resolve database url: %w", err)
		}
		db, err := gormstore.Open(url)
		if err != nil {
			return nil, err
		}
		b.closeFunc = append(b.closeFunc, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		if b.cfg.AutoMigrate {
			if err := gormstore.Migrate(db); err != nil {
				return nil, err
			}
		}
		st, err := gormstore.New(db, b.log)
		if err != nil {
			return nil, err
		}
		b.store = st
	}
	b.log.Info("store ready", "driver", b.cfg.StoreDriver)
	return b.store, nil
}

func (b *Builder) mindstudioClient(ctx context.Context) (*mindstudio.Client, error) {
	if b.msClient != nil {
		return b.msClient, nil
	}
	key, err := b.secret(ctx, paramMindStudioToken, b.cfg.MindStudioAPIKey, "MINDSTUDIO_API_KEY")
	if err != nil {
		return nil, err
	}
	var opts []mindstudio.Option
	if b.cfg.MindStudioBaseURL != "" {
		opts = append(opts, mindstudio.WithBaseURL(b.cfg.MindStudioBaseURL))
	}
	c, err := mindstudio.NewClient(key, opts...)
	if err != nil {
		return nil, err
	}
	b.msClient = c
	return c, nil
}

func (b *Builder) openaiClient(ctx context.Context) (*openai.Client, error) {
	if b.oaClient != nil {
		return b.oaClient, nil
	}
	key, err := b.secret(ctx, paramOpenAIToken, b.cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	var opts []openai.Option
	if b.cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(b.cfg.OpenAIBaseURL))
	}
	if b.cfg.OpenAIModel != "" {
		opts = append(opts, openai.WithModel(b.cfg.OpenAIModel))
	}
	c, err := openai.NewClient(key, opts...)
	if err != nil {
		return nil, err
	}
	b.oaClient = c
	return c, nil
}

func (b *Builder) questionGenerator(ctx context.Context) (usecase.QuestionGenerator, error) {
	if b.cfg.GeneratorBackend == BackendOpenAI {
		return b.openaiClient(ctx)
	}
	c, err := b.mindstudioClient(ctx)
	if err != nil {
		return nil, err
	}
	return mindstudio.NewApp(c, b.cfg.InterviewAppID, b.cfg.InterviewWorkflow, b.log)
}

func (b *Builder) conditionSuggester(ctx context.Context) (usecase.ConditionSuggester, error) {
	if b.cfg.GeneratorBackend == BackendOpenAI {
		return b.openaiClient(ctx)
	}
	c, err := b.mindstudioClient(ctx)
	if err != nil {
		return nil, err
	}
	return mindstudio.NewApp(c, b.cfg.SuggestAppID, b.cfg.SuggestWorkflow, b.log)
}

func (b *Builder) turnLocker(ctx context.Context) (usecase.TurnLocker, error) {
	if b.cfg.TurnLockRedisAddr == "" {
		return nil, nil
	}
	l, err := redislock.Dial(ctx, b.cfg.TurnLockRedisAddr, b.cfg.TurnLockTTL, b.log)
	if err != nil {
		return nil, err
	}
	b.closeFunc = append(b.closeFunc, func() { _ = l.Close() })
	return l, nil
}

func (b *Builder) InterviewHandler(ctx context.Context) (*handler.InterviewHandler, error) {
	st, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	gen, err := b.questionGenerator(ctx)
	if err != nil {
		return nil, err
	}
	locker, err := b.turnLocker(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := usecase.NewInterviewService(st, gen, b.log, usecase.InterviewConfig{
		MaxAnswerLength:  b.cfg.MaxAnswerLength,
		GeneratorTimeout: b.cfg.GeneratorTimeout,
		Locker:           locker,
	})
	if err != nil {
		return nil, err
	}
	v, err := b.tokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return handler.NewInterviewHandler(svc, v, b.log)
}

func (b *Builder) SuggestHandler(ctx context.Context) (*handler.SuggestHandler, error) {
	s, err := b.conditionSuggester(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := usecase.NewSuggestService(s, b.log)
	if err != nil {
		return nil, err
	}
	v, err := b.tokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return handler.NewSuggestHandler(svc, v, b.log)
}

func (b *Builder) RecordsHandler(ctx context.Context) (*handler.RecordsHandler, error) {
	st, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	records, err := usecase.NewRecordsService(st, b.log)
	if err != nil {
		return nil, err
	}
	if b.cfg.DocumentBucket == "" {
		return nil, errors.New("app: DOCUMENT_BUCKET is not set")
	}
	awsCfg, err := b.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	blobs, err := objectstore.New(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = b.cfg.AWSEndpointURL != ""
	}), b.cfg.DocumentBucket)
	if err != nil {
		return nil, err
	}
	docCfg := usecase.DocumentConfig{
		UploadURLTTL:     b.cfg.UploadURLTTL,
		MaxDocumentBytes: b.cfg.MaxDocumentBytes,
	}
	if b.cfg.DocumentQueueURL != "" {
		pub, err := queue.New(sqs.NewFromConfig(awsCfg), b.cfg.DocumentQueueURL)
		if err != nil {
			return nil, err
		}
		docCfg.Notifier = pub
	}
	docs, err := usecase.NewDocumentService(st, blobs, b.log, docCfg)
	if err != nil {
		return nil, err
	}
	v, err := b.tokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return handler.NewRecordsHandler(records, docs, v, b.log)
}

// DevRouter hosts every handler on one gin engine.
func (b *Builder) DevRouter(ctx context.Context) (http.Handler, error) {
	interview, err := b.InterviewHandler(ctx)
	if err != nil {
		return nil, err
	}
	suggest, err := b.SuggestHandler(ctx)
	if err != nil {
		return nil, err
	}
	records, err := b.RecordsHandler(ctx)
	if err != nil {
		return nil, err
	}
	routes := []devserver.Route{
		{Method: http.MethodPost, Resource: "/manage-interview", Handler: interview.Handle},
		{Method: http.MethodPost, Resource: "/suggest-conditions", Handler: suggest.Handle},
	}
	for _, r := range records.Routes() {
		routes = append(routes, devserver.Route{Method: r.Method, Resource: r.Resource, Handler: records.Handle})
	}
	return devserver.NewRouter(routes, devserver.Config{AllowOrigins: b.cfg.CORSOrigins}, b.log)
}
