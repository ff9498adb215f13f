package config

const (
	defaultInputDir          = "~/pagesmith/input"
	defaultOutputDir         = "~/pagesmith/output"
	defaultWorkDir           = "~/.cache/pagesmith/work"
	defaultStateDir          = "~/.local/share/pagesmith"
	defaultLogDir            = "~/.local/share/pagesmith/logs"
	defaultPotrace           = "potrace"
	defaultInkscape          = "inkscape"
	defaultTraceTimeout      = 120
	defaultRenderTimeout     = 60
	defaultPageWidthMM       = 210
	defaultPageHeightMM      = 297
	defaultPageDPI           = 96
	defaultMarginRatio       = 0.10
	defaultFill              = "#000000"
	defaultStroke            = "none"
	defaultBlackLevel        = 0.5
	defaultTurdSize          = 2
	defaultAlphaMax          = 1.0
	defaultOptTolerance      = 0.2
	defaultThumbnailWidth    = 350
	defaultRatioTolerance    = 0.05
	defaultMinContrast       = 20
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMReferer        = "https://github.com/pagesmith/pagesmith"
	defaultLLMTitle          = "pagesmith"
	defaultLLMTimeoutSeconds = 60
	defaultRetryMaxAttempts  = 4
	defaultRetryBase         = 2
	defaultRetryUnitMillis   = 1000
	defaultRetryMaxDelay     = 60
	defaultRateLimitCalls    = 60
	defaultRateLimitWindow   = 60
	defaultWorkers           = 1
	defaultPlaceholderTitle  = "Unbekanntes Motiv"
	defaultSubcategory       = "Allgemein"
	defaultBaseLanguage      = "de"
	defaultPublishFormat     = "json"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultDiscoveryPattern  = "**/*.png"
	defaultStaleWorkHours    = 24
	defaultNotifyTimeout     = 10
	maxWorkers               = 64
)

// defaultTargets are the localization targets used when none are configured.
func defaultTargets() []Language {
	return []Language{
		{Name: "Deutsch", Code: "de"},
		{Name: "Englisch", Code: "en"},
		{Name: "Spanisch", Code: "es"},
		{Name: "Französisch", Code: "fr"},
		{Name: "Italienisch", Code: "it"},
		{Name: "Portugiesisch", Code: "pt"},
		{Name: "Niederländisch", Code: "nl"},
		{Name: "Japanisch", Code: "ja"},
		{Name: "Koreanisch", Code: "ko"},
		{Name: "Mandarin", Code: "zh"},
		{Name: "Russisch", Code: "ru"},
		{Name: "Arabisch", Code: "ar"},
		{Name: "Hindi", Code: "hi"},
		{Name: "Türkisch", Code: "tr"},
		{Name: "Polnisch", Code: "pl"},
		{Name: "Schwedisch", Code: "sv"},
		{Name: "Indonesisch", Code: "id"},
		{Name: "Vietnamesisch", Code: "vi"},
		{Name: "Tschechisch", Code: "cs"},
		{Name: "Ukrainisch", Code: "uk"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			Potrace:       defaultPotrace,
			Inkscape:      defaultInkscape,
			TraceTimeout:  defaultTraceTimeout,
			RenderTimeout: defaultRenderTimeout,
		},
		Page: Page{
			WidthMM:     defaultPageWidthMM,
			HeightMM:    defaultPageHeightMM,
			DPI:         defaultPageDPI,
			MarginRatio: defaultMarginRatio,
			Fill:        defaultFill,
			Stroke:      defaultStroke,
		},
		Trace: Trace{
			BlackLevel:   defaultBlackLevel,
			TurdSize:     defaultTurdSize,
			AlphaMax:     defaultAlphaMax,
			OptTolerance: defaultOptTolerance,
			Autocrop:     true,
		},
		Thumbnail: Thumbnail{
			Width:          defaultThumbnailWidth,
			RatioTolerance: defaultRatioTolerance,
			MinContrast:    defaultMinContrast,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Retry: Retry{
			MaxAttempts:     defaultRetryMaxAttempts,
			Base:            defaultRetryBase,
			UnitMillis:      defaultRetryUnitMillis,
			MaxDelaySeconds: defaultRetryMaxDelay,
		},
		RateLimit: RateLimit{
			Calls:         defaultRateLimitCalls,
			WindowSeconds: defaultRateLimitWindow,
		},
		Pipeline: Pipeline{
			Workers:            defaultWorkers,
			Patterns:           []string{defaultDiscoveryPattern},
			PlaceholderTitle:   defaultPlaceholderTitle,
			DefaultSubcategory: defaultSubcategory,
			StaleWorkHours:     defaultStaleWorkHours,
		},
		Languages: Languages{
			Base:    defaultBaseLanguage,
			Targets: defaultTargets(),
		},
		Publish: Publish{
			Format: defaultPublishFormat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
