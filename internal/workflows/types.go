package workflows

// RetrySettings controls the reattempt loop around model calls. Zero values
// fall back to 5 attempts with a fixed 60 second wait.
type RetrySettings struct {
	MaxAttempts  int  `json:"max_attempts,omitempty"`
	DelaySeconds int  `json:"delay_seconds,omitempty"`
	Exponential  bool `json:"exponential,omitempty"`
}

// CalibrationSettings mirrors the page-to-characters conversion knobs. Zero
// values take the built-in calibration.
type CalibrationSettings struct {
	SafetyFactor    float64 `json:"safety_factor,omitempty"`
	MinCharsPerPage int     `json:"min_chars_per_page,omitempty"`
	MaxCharsPerPage int     `json:"max_chars_per_page,omitempty"`
}

type LotAnalysisInput struct {
	Project       string        `json:"project"`
	ProviderIndex int           `json:"provider_index"`
	Retry         RetrySettings `json:"retry,omitempty"`
}

type LotAnalysisOutput struct {
	TieneLotes bool     `json:"tiene_lotes"`
	Lotes      []string `json:"lotes"`
}

type IndexInput struct {
	Project       string              `json:"project"`
	Lot           string              `json:"lot"`
	Feedback      string              `json:"feedback,omitempty"`
	ProviderIndex int                 `json:"provider_index"`
	Retry         RetrySettings       `json:"retry,omitempty"`
	Calibration   CalibrationSettings `json:"calibration,omitempty"`
}

type IndexOutput struct {
	TituloMemoria string `json:"titulo_memoria"`
	Apartados     int    `json:"apartados"`
}

type GuionInput struct {
	Project       string              `json:"project"`
	Lot           string              `json:"lot"`
	Subapartado   string              `json:"subapartado"`
	Feedback      string              `json:"feedback,omitempty"`
	ProviderIndex int                 `json:"provider_index"`
	Retry         RetrySettings       `json:"retry,omitempty"`
	Calibration   CalibrationSettings `json:"calibration,omitempty"`
}

type GuionBatchInput struct {
	Project               string              `json:"project"`
	Lot                   string              `json:"lot"`
	Subapartados          []string            `json:"subapartados,omitempty"`
	MaxConcurrentChildren int                 `json:"max_concurrent_children"`
	ProviderIndex         int                 `json:"provider_index"`
	Retry                 RetrySettings       `json:"retry,omitempty"`
	Calibration           CalibrationSettings `json:"calibration,omitempty"`
}

type PlanInput struct {
	Project       string              `json:"project"`
	Lot           string              `json:"lot"`
	Subapartado   string              `json:"subapartado"`
	ProviderIndex int                 `json:"provider_index"`
	Retry         RetrySettings       `json:"retry,omitempty"`
	Calibration   CalibrationSettings `json:"calibration,omitempty"`
}

type PlanBatchInput struct {
	Project               string              `json:"project"`
	Lot                   string              `json:"lot"`
	Subapartados          []string            `json:"subapartados,omitempty"`
	MaxConcurrentChildren int                 `json:"max_concurrent_children"`
	ProviderIndex         int                 `json:"provider_index"`
	Retry                 RetrySettings       `json:"retry,omitempty"`
	Calibration           CalibrationSettings `json:"calibration,omitempty"`
}

// BatchProgress is exposed through a query handler while a fan-out runs.
type BatchProgress struct {
	Total   int               `json:"total"`
	Done    int               `json:"done"`
	Failed  int               `json:"failed"`
	PerItem map[string]string `json:"per_item_status"`
}

type BatchOutput struct {
	Status  string            `json:"status"`
	Total   int               `json:"total"`
	Failed  int               `json:"failed"`
	PerItem map[string]string `json:"per_item_status"`
	Missing []string          `json:"missing,omitempty"`
}

type AssemblyInput struct {
	Project       string              `json:"project"`
	Lot           string              `json:"lot"`
	Resume        bool                `json:"resume,omitempty"`
	SkipFinal     bool                `json:"skip_final,omitempty"`
	ProviderIndex int                 `json:"provider_index"`
	Retry         RetrySettings       `json:"retry,omitempty"`
	Calibration   CalibrationSettings `json:"calibration,omitempty"`
}

type AssemblyProgress struct {
	Total       int    `json:"total"`
	Done        int    `json:"done"`
	CurrentTask string `json:"current_task,omitempty"`
}

type AssemblyOutput struct {
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Done        int    `json:"done"`
	FailedTask  string `json:"failed_task,omitempty"`
	BodyFileID  string `json:"body_file_id,omitempty"`
	FinalFileID string `json:"final_file_id,omitempty"`
}
