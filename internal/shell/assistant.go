package shell

import (
	"errors"
	"fmt"
	"os"

	"specter/internal/capability"
	"specter/internal/catalog"
	"specter/internal/config"
	"specter/internal/conversation"
	"specter/internal/intent"
	"specter/internal/llm"
	"specter/internal/logger"
	"specter/internal/modules/calendar"
	"specter/internal/modules/email"
	"specter/internal/modules/files"
	"specter/internal/modules/launcher"
	"specter/internal/modules/music"
	"specter/internal/modules/news"
	"specter/internal/modules/speech"
	"specter/internal/modules/system"
	"specter/internal/modules/weather"
	"specter/internal/router"
	"specter/internal/storage"
	"specter/internal/testutils"
	"specter/pkg/spectertypes"
)

// Constructor builds the module for one slot.
type Constructor func() (spectertypes.Capability, error)

// BuildOptions adjusts Build, mainly for tests.
type BuildOptions struct {
	// Generator replaces the configured text-generation client when set.
	Generator spectertypes.TextGenerator
	// Overrides replaces the constructor for individual slots.
	Overrides map[spectertypes.Slot]Constructor
}

// Assistant holds everything built once at startup. Conversation, Calendar
// and Speech are nil when their modules could not be constructed.
type Assistant struct {
	Config       *config.Config
	Catalog      *catalog.Catalog
	Registry     *capability.Registry
	Router       *router.Router
	Generator    spectertypes.TextGenerator
	Conversation *conversation.Engine
	Calendar     *calendar.Module
	Speech       *speech.Module
}

// Build constructs every capability module. A module that fails to construct
// is recorded as unavailable with the catalogue remedy; only a missing data
// directory or a broken catalogue is fatal.
func Build(cfg *config.Config, opts BuildOptions) (*Assistant, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	a := &Assistant{
		Config:    cfg,
		Catalog:   cat,
		Registry:  capability.NewRegistry(),
		Generator: opts.Generator,
	}
	if a.Generator == nil {
		gen, err := llm.NewGenerator(cfg.LLM)
		switch {
		case err == nil:
			a.Generator = gen
		case errors.Is(err, llm.ErrNotConfigured):
			logger.Info("No text-generation service configured, using keyword routing")
		default:
			logger.Warn("Text-generation service unavailable", "error", err)
		}
	}

	constructors := a.constructors()
	for slot, c := range opts.Overrides {
		constructors[slot] = c
	}

	for _, slot := range spectertypes.AllSlots() {
		build, ok := constructors[slot]
		if !ok {
			continue
		}
		if err := a.install(slot, build); err != nil {
			return nil, err
		}
	}
	a.Registry.Seal()

	var classifier router.Classifier
	if a.Generator != nil && !cfg.LLM.DisableClassifier {
		classifier = intent.NewClassifier(a.Generator, cfg.LLM.Timeout)
	}
	a.Router = router.New(router.Options{
		Registry:   a.Registry,
		Classifier: classifier,
		UserName:   cfg.UserName,
	})

	active, total := a.Registry.ActiveCount()
	logger.Info("Capability modules built", "active", active, "total", total)
	return a, nil
}

func (a *Assistant) install(slot spectertypes.Slot, build Constructor) error {
	entry, _ := a.Catalog.Entry(slot)
	label := a.Catalog.Label(slot)

	module, err := build()
	if err == nil && module == nil {
		err = fmt.Errorf("module not built")
	}
	logger.ModuleLoad(string(slot), err)
	if err != nil {
		remedy := ""
		if len(entry.Remedy) > 0 {
			remedy = entry.Remedy[0]
		}
		return a.Registry.MarkUnavailable(slot, label, err.Error(), remedy)
	}
	return a.Registry.Register(label, module)
}

func (a *Assistant) constructors() map[spectertypes.Slot]Constructor {
	cfg := a.Config
	stamper := testutils.NewStamper(cfg.TestMode)

	return map[spectertypes.Slot]Constructor{
		spectertypes.SlotSpeech: func() (spectertypes.Capability, error) {
			m, err := speech.New(speech.Options{Config: cfg.Speech})
			if err != nil {
				return nil, err
			}
			a.Speech = m
			return m, nil
		},
		spectertypes.SlotConversation: func() (spectertypes.Capability, error) {
			e, err := conversation.NewEngine(conversation.Options{
				Generator: a.Generator,
				Store:     storage.NewJSONFile(cfg.DataPath(conversation.HistoryFile)),
				UserName:  cfg.UserName,
				Timeout:   cfg.LLM.Timeout,
				Stamper:   stamper,
			})
			if err != nil {
				return nil, err
			}
			a.Conversation = e
			return e, nil
		},
		spectertypes.SlotFiles: func() (spectertypes.Capability, error) {
			m, err := files.New(files.Options{HomeDir: cfg.HomeDir, OperationPassword: cfg.OperationPassword})
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		spectertypes.SlotMusic: func() (spectertypes.Capability, error) {
			m, err := music.New(music.Options{Config: cfg.Music, CacheDir: cfg.DataPath("temp_music")})
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		spectertypes.SlotLauncher: func() (spectertypes.Capability, error) {
			return launcher.New(launcher.Options{}), nil
		},
		spectertypes.SlotNews: func() (spectertypes.Capability, error) {
			m, err := news.New(cfg.News, cfg.HTTPTimeout)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		spectertypes.SlotCalendar: func() (spectertypes.Capability, error) {
			m, err := calendar.New(calendar.Options{
				Events:    storage.NewJSONFile(cfg.DataPath(calendar.EventsFile)),
				Reminders: storage.NewJSONFile(cfg.DataPath(calendar.RemindersFile)),
				Stamper:   stamper,
			})
			if err != nil {
				return nil, err
			}
			a.Calendar = m
			return m, nil
		},
		spectertypes.SlotSystem: func() (spectertypes.Capability, error) {
			return system.New(system.Options{Generator: a.Generator}), nil
		},
		spectertypes.SlotWeather: func() (spectertypes.Capability, error) {
			m, err := weather.New(cfg.Weather, cfg.HTTPTimeout)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		spectertypes.SlotEmail: func() (spectertypes.Capability, error) {
			m, err := email.New(email.Options{
				Config:    cfg.Email,
				DraftPath: cfg.DataPath("email_draft.txt"),
				Timeout:   cfg.HTTPTimeout,
			})
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	}
}

// Close stops background workers owned by modules.
func (a *Assistant) Close() error {
	return a.Registry.Close()
}
