package activities

import (
	"memoflow/internal/docbuild"
	"memoflow/internal/models"
	"memoflow/internal/providers"
)

type EnsureProjectInput struct {
	Project string `json:"project"`
}

type EnsureProjectOutput struct {
	ProjectID string `json:"project_id"`
	FolderID  string `json:"folder_id"`
}

type StoredFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListPliegosInput struct {
	Project string `json:"project"`
}

type ListPliegosOutput struct {
	Files []StoredFile `json:"files"`
}

type ExtractPliegoTextInput struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MaxChars int    `json:"max_chars,omitempty"`
}

type ExtractPliegoTextOutput struct {
	Text   string   `json:"text"`
	Chunks []string `json:"chunks,omitempty"`
}

type BuildPliegoPartsInput struct {
	Project  string `json:"project"`
	MaxChars int    `json:"max_chars,omitempty"`
}

type BuildPliegoPartsOutput struct {
	Parts []providers.Part `json:"parts"`
}

type LLMGenerateInput struct {
	Operation     string           `json:"operation"`
	RunID         string           `json:"run_id,omitempty"`
	Phase         string           `json:"phase,omitempty"`
	ProviderIndex int              `json:"provider_index"`
	ProviderName  string           `json:"provider_name,omitempty"`
	Prompt        string           `json:"prompt"`
	Parts         []providers.Part `json:"parts,omitempty"`
	History       []providers.Turn `json:"history,omitempty"`
	JSONMode      bool             `json:"json_mode,omitempty"`
}

type LLMGenerateOutput struct {
	Text         string `json:"text"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	LatencyMS    int64  `json:"latency_ms"`
}

type LogLLMCallInput struct {
	RunID        string `json:"run_id"`
	Phase        string `json:"phase"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	LatencyMS    int64  `json:"latency_ms"`
	ErrorType    string `json:"error_type,omitempty"`
}

type SaveLotAnalysisInput struct {
	Project  string             `json:"project"`
	Analysis models.LotAnalysis `json:"analysis"`
}

type LoadLotAnalysisInput struct {
	Project string `json:"project"`
}

type LoadLotAnalysisOutput struct {
	Analysis models.LotAnalysis `json:"analysis"`
	Found    bool               `json:"found"`
}

type SaveIndexInput struct {
	Project string             `json:"project"`
	Lot     string             `json:"lot"`
	Index   models.TenderIndex `json:"index"`
}

type LoadIndexInput struct {
	Project string `json:"project"`
	Lot     string `json:"lot"`
}

type LoadIndexOutput struct {
	Index models.TenderIndex `json:"index"`
}

type SaveGuionInput struct {
	Project     string `json:"project"`
	Lot         string `json:"lot"`
	Subapartado string `json:"subapartado"`
	Markdown    string `json:"markdown"`
}

type LoadGuionInput struct {
	Project     string `json:"project"`
	Lot         string `json:"lot"`
	Subapartado string `json:"subapartado"`
}

type LoadGuionOutput struct {
	Markdown string `json:"markdown"`
}

type LoadContextPartsInput struct {
	Project     string `json:"project"`
	Lot         string `json:"lot"`
	Subapartado string `json:"subapartado"`
}

type LoadContextPartsOutput struct {
	Parts []providers.Part `json:"parts"`
}

type SavePromptPlanInput struct {
	Project     string            `json:"project"`
	Lot         string            `json:"lot"`
	Subapartado string            `json:"subapartado"`
	Plan        models.PromptPlan `json:"plan"`
}

type UnifyPlansInput struct {
	Project string `json:"project"`
	Lot     string `json:"lot"`
}

type UnifyPlansOutput struct {
	Plan    models.PromptPlan `json:"plan"`
	Missing []string          `json:"missing,omitempty"`
}

type LoadUnifiedPlanInput struct {
	Project string `json:"project"`
	Lot     string `json:"lot"`
}

type LoadUnifiedPlanOutput struct {
	Plan models.PromptPlan `json:"plan"`
}

type RenderFragmentInput struct {
	HTML string `json:"html"`
}

type RenderFragmentOutput struct {
	PNG []byte `json:"png"`
}

type SaveBodyDocInput struct {
	Project string           `json:"project"`
	Lot     string           `json:"lot"`
	Blocks  []docbuild.Block `json:"blocks"`
}

type SaveBodyDocOutput struct {
	FileID string `json:"file_id"`
}

// AssemblyState is the resumable position of a document assembly run. Tasks
// before NextTask are already reflected in Blocks and History.
type AssemblyState struct {
	NextTask int              `json:"next_task"`
	History  []providers.Turn `json:"history"`
	Blocks   []docbuild.Block `json:"blocks"`
}

type SaveCheckpointInput struct {
	Project string        `json:"project"`
	Lot     string        `json:"lot"`
	State   AssemblyState `json:"state"`
}

type LoadCheckpointInput struct {
	Project string `json:"project"`
	Lot     string `json:"lot"`
}

type LoadCheckpointOutput struct {
	State AssemblyState `json:"state"`
	Found bool          `json:"found"`
}

type DeleteCheckpointInput struct {
	Project string `json:"project"`
	Lot     string `json:"lot"`
}

type ComposeFinalInput struct {
	Project       string            `json:"project"`
	Lot           string            `json:"lot"`
	Titulo        string            `json:"titulo"`
	Estructura    []models.Apartado `json:"estructura"`
	IntroMarkdown string            `json:"intro_markdown"`
	Blocks        []docbuild.Block  `json:"blocks"`
}

type ComposeFinalOutput struct {
	FileID string `json:"file_id"`
}

type CreateRunInput struct {
	RunID     string `json:"run_id"`
	ProjectID string `json:"project_id"`
	Lot       string `json:"lot"`
	Phase     string `json:"phase"`
}

type UpdateRunStatusInput struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type UpsertRunItemInput struct {
	RunID  string `json:"run_id"`
	Item   string `json:"item"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
