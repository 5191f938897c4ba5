package shared

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/services/teacherapi"
	"github.com/zugate/teacherdash/storage/database"
	filestore "github.com/zugate/teacherdash/storage/tokenstore/file"
	"github.com/zugate/teacherdash/storage/tokenstore/inmem"
	sqlxstore "github.com/zugate/teacherdash/storage/tokenstore/sqlx"
)

var errUnknownTokenBackend = errors.New("unknown token backend")

// App holds the dependencies shared by the dashboard server and the CLI.
// Both surfaces read and write through the same Session and Controller.
type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Session    *session.Session
	Client     *teacherapi.Client
	Dashboard  *dashboard.Controller
	Validate   *validator.Validate
	Translator ut.Translator

	close func() error
}

// NewTokenStore returns the TokenStore selected by `token.backend`, and a func releasing its resources.
func NewTokenStore(conf *core.Config) (session.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch conf.Token.Backend {
	case core.TokenBackendMemory:
		return inmem.NewTokenStore(), noop, nil
	case core.TokenBackendFile, "":
		return filestore.NewTokenStore(conf.Token.File, conf.Token.Key), noop, nil
	case core.TokenBackendDB:
		db, err := database.Open(conf.Database)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening token database")
		}
		return sqlxstore.NewTokenStore(db, conf.Token.Key), db.Close, nil
	default:
		return nil, nil, errors.Wrapf(errUnknownTokenBackend, "%q", conf.Token.Backend)
	}
}

// NewApp wires the session, the teacher API client and the dashboard controller, then boots the session.
func NewApp(ctx context.Context, conf *core.Config, logger core.Logger) (*App, error) {
	store, closeStore, err := NewTokenStore(conf)
	if err != nil {
		return nil, err
	}

	sess := session.New(store, session.NewDecoder())
	client := teacherapi.NewClient(teacherapi.Options{
		BaseURL: conf.API.BaseURL,
		Timeout: conf.API.Timeout,
		Tokens:  sess,
		Logger:  logger,
	})

	validate := validator.New()
	translator := core.NewTranslator()
	dashboard.InitValidators(validate, translator)

	ctrl := dashboard.NewController(dashboard.Deps{
		API:        client,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Defaults: dashboard.UploadConfig{
			NumQuestions: conf.Upload.NumQuestions,
			NumAnswers:   conf.Upload.NumAnswers,
		},
	})

	// signing out (or a token expiring) drops everything the previous teacher loaded
	sess.Subscribe(func(snap session.Snapshot) {
		if !snap.Authenticated() {
			ctrl.Reset()
			logger.Info("session ended")
			return
		}
		logger.Info("session started", snap.User)
	})

	if err = sess.Boot(ctx); err != nil {
		_ = closeStore()
		return nil, errors.Wrap(err, "booting session")
	}

	return &App{
		Conf:       conf,
		Logger:     logger,
		Session:    sess,
		Client:     client,
		Dashboard:  ctrl,
		Validate:   validate,
		Translator: translator,
		close:      closeStore,
	}, nil
}

func (app *App) Close() error {
	return app.close()
}
