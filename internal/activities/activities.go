package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"memoflow/internal/config"
	"memoflow/internal/docbuild"
	"memoflow/internal/models"
	"memoflow/internal/providers"
	"memoflow/internal/storage"
	"memoflow/internal/store"
	"memoflow/internal/util"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

type Activities struct {
	cfg          config.Config
	layout       store.Layout
	projectRepo  *storage.ProjectRepo
	runRepo      *storage.RunRepo
	llmAuditRepo *storage.LLMAuditRepo
	providers    *providers.Manager
	renderer     docbuild.FragmentRenderer
}

// New wires the activity set. db may be nil, in which case run tracking and
// call auditing become no-ops and the document store stays the only state.
func New(cfg config.Config, docs store.DocumentStore, db *storage.DB, renderer docbuild.FragmentRenderer) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders)
	if err != nil {
		return nil, err
	}
	if renderer == nil {
		renderer = docbuild.PlaceholderRenderer{}
	}
	a := &Activities{
		cfg:       cfg,
		layout:    store.Layout{Store: docs},
		providers: pm,
		renderer:  renderer,
	}
	if db != nil {
		a.projectRepo = storage.NewProjectRepo(db)
		a.runRepo = storage.NewRunRepo(db)
		a.llmAuditRepo = storage.NewLLMAuditRepo(db)
	}
	return a, nil
}

func (a *Activities) EnsureProjectActivity(ctx context.Context, in EnsureProjectInput) (EnsureProjectOutput, error) {
	folder, err := a.layout.ProjectFolder(ctx, in.Project)
	if err != nil {
		return EnsureProjectOutput{}, fmt.Errorf("ensure project folder: %w", err)
	}
	out := EnsureProjectOutput{ProjectID: in.Project, FolderID: folder.ID}
	if a.projectRepo == nil {
		return out, nil
	}
	if err := a.projectRepo.UpsertProject(ctx, models.Project{
		ProjectID: uuid.NewString(),
		Name:      in.Project,
		FolderID:  folder.ID,
	}); err != nil {
		return EnsureProjectOutput{}, err
	}
	p, err := a.projectRepo.GetProjectByName(ctx, in.Project)
	if err != nil {
		return EnsureProjectOutput{}, err
	}
	out.ProjectID = p.ProjectID
	return out, nil
}

func (a *Activities) ListPliegosActivity(ctx context.Context, in ListPliegosInput) (ListPliegosOutput, error) {
	folder, err := a.layout.PliegosFolder(ctx, in.Project)
	if err != nil {
		return ListPliegosOutput{}, err
	}
	entries, err := a.layout.Store.List(ctx, folder.ID)
	if err != nil {
		return ListPliegosOutput{}, fmt.Errorf("list pliegos: %w", err)
	}
	out := ListPliegosOutput{Files: make([]StoredFile, 0, len(entries))}
	for _, e := range entries {
		if e.IsFolder {
			continue
		}
		out.Files = append(out.Files, StoredFile{ID: e.ID, Name: e.Name})
	}
	return out, nil
}

func (a *Activities) ExtractPliegoTextActivity(ctx context.Context, in ExtractPliegoTextInput) (ExtractPliegoTextOutput, error) {
	data, err := a.layout.Store.Download(ctx, in.FileID)
	if err != nil {
		return ExtractPliegoTextOutput{}, fmt.Errorf("download pliego: %w", err)
	}
	var text string
	if strings.HasSuffix(strings.ToLower(in.FileName), ".pdf") {
		text, err = extractPDFText(data)
		if err != nil {
			return ExtractPliegoTextOutput{}, err
		}
	} else {
		text = string(data)
	}
	text = util.SanitizeText(strings.TrimSpace(text))
	if text == "" {
		return ExtractPliegoTextOutput{}, util.ErrNoExtractableText
	}
	out := ExtractPliegoTextOutput{Text: text}
	if in.MaxChars > 0 && len(text) > in.MaxChars {
		out.Chunks = util.ChunkText(text, in.MaxChars, 0)
	}
	return out, nil
}

// defaultPartMaxChars caps the text of a single prompt part so one huge
// pliego cannot eat the whole context window on its own.
const defaultPartMaxChars = 400_000

func (a *Activities) BuildPliegoPartsActivity(ctx context.Context, in BuildPliegoPartsInput) (BuildPliegoPartsOutput, error) {
	files, err := a.ListPliegosActivity(ctx, ListPliegosInput{Project: in.Project})
	if err != nil {
		return BuildPliegoPartsOutput{}, err
	}
	maxChars := in.MaxChars
	if maxChars <= 0 {
		maxChars = defaultPartMaxChars
	}
	out := BuildPliegoPartsOutput{Parts: make([]providers.Part, 0, len(files.Files))}
	for _, f := range files.Files {
		extracted, err := a.ExtractPliegoTextActivity(ctx, ExtractPliegoTextInput{FileID: f.ID, FileName: f.Name, MaxChars: maxChars})
		if err != nil {
			if errors.Is(err, util.ErrNoExtractableText) {
				continue
			}
			return BuildPliegoPartsOutput{}, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		if len(extracted.Chunks) > 1 {
			for i, chunk := range extracted.Chunks {
				out.Parts = append(out.Parts, providers.Part{
					Text: fmt.Sprintf("### Documento: %s (parte %d/%d)\n\n%s", f.Name, i+1, len(extracted.Chunks), chunk),
				})
			}
			continue
		}
		out.Parts = append(out.Parts, providers.Part{
			Text: fmt.Sprintf("### Documento: %s\n\n%s", f.Name, extracted.Text),
		})
	}
	if len(out.Parts) == 0 {
		return BuildPliegoPartsOutput{}, util.ErrNoExtractableText
	}
	return out, nil
}

func (a *Activities) LLMGenerateActivity(ctx context.Context, in LLMGenerateInput) (LLMGenerateOutput, error) {
	provider, ref := a.providers.LLMProviderByIndex(in.ProviderIndex)
	if in.ProviderName != "" {
		p, r, ok := a.providers.FindLLMProviderByName(in.ProviderName)
		if !ok {
			return LLMGenerateOutput{}, fmt.Errorf("llm provider not configured in worker: %s", in.ProviderName)
		}
		provider, ref = p, r
	}
	started := time.Now()
	resp, info, err := provider.Generate(ctx, providers.GenerateRequest{
		Operation: in.Operation,
		Prompt:    in.Prompt,
		Parts:     in.Parts,
		History:   in.History,
		JSONMode:  in.JSONMode,
	})
	if err != nil {
		return LLMGenerateOutput{}, fmt.Errorf("llm generate via %s failed: %w", ref.Raw, err)
	}
	return LLMGenerateOutput{
		Text:         resp.Text,
		ProviderName: info.Name,
		Model:        info.Model,
		LatencyMS:    time.Since(started).Milliseconds(),
	}, nil
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	if a.llmAuditRepo == nil {
		return nil
	}
	return a.llmAuditRepo.Insert(ctx, models.LLMCall{
		CallID:     uuid.NewString(),
		RunID:      in.RunID,
		Phase:      in.Phase,
		Provider:   in.ProviderName,
		Model:      in.Model,
		LatencyMS:  in.LatencyMS,
		ErrorClass: in.ErrorType,
	})
}

func (a *Activities) SaveLotAnalysisActivity(ctx context.Context, in SaveLotAnalysisInput) error {
	folder, err := a.layout.ProjectFolder(ctx, in.Project)
	if err != nil {
		return err
	}
	return a.replaceJSON(ctx, folder.ID, store.LotAnalysisFile, in.Analysis)
}

func (a *Activities) LoadLotAnalysisActivity(ctx context.Context, in LoadLotAnalysisInput) (LoadLotAnalysisOutput, error) {
	folder, err := a.layout.ProjectFolder(ctx, in.Project)
	if err != nil {
		return LoadLotAnalysisOutput{}, err
	}
	var out LoadLotAnalysisOutput
	found, err := a.readJSON(ctx, folder.ID, store.LotAnalysisFile, &out.Analysis)
	if err != nil {
		return LoadLotAnalysisOutput{}, err
	}
	out.Found = found
	return out, nil
}

func (a *Activities) SaveIndexActivity(ctx context.Context, in SaveIndexInput) error {
	folder, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return err
	}
	return a.replaceJSON(ctx, folder.ID, store.IndexFileName(in.Lot), in.Index)
}

func (a *Activities) LoadIndexActivity(ctx context.Context, in LoadIndexInput) (LoadIndexOutput, error) {
	folder, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return LoadIndexOutput{}, err
	}
	var out LoadIndexOutput
	found, err := a.readJSON(ctx, folder.ID, store.IndexFileName(in.Lot), &out.Index)
	if err != nil {
		return LoadIndexOutput{}, err
	}
	if !found {
		return LoadIndexOutput{}, fmt.Errorf("index %s: %w", store.IndexFileName(in.Lot), util.ErrNotFound)
	}
	return out, nil
}

const guionSourceFile = "guion.md"

func (a *Activities) SaveGuionActivity(ctx context.Context, in SaveGuionInput) error {
	folder, err := a.layout.SubapartadoFolder(ctx, in.Project, in.Lot, in.Subapartado)
	if err != nil {
		return err
	}
	if _, err := store.ReplaceFile(ctx, a.layout.Store, folder.ID, guionSourceFile, []byte(in.Markdown)); err != nil {
		return fmt.Errorf("save guion source: %w", err)
	}
	doc := &docbuild.Document{}
	doc.AddHeading(in.Subapartado, 2)
	doc.AppendMarkdown(in.Markdown)
	rendered, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("render guion docx: %w", err)
	}
	if _, err := store.ReplaceFile(ctx, a.layout.Store, folder.ID, store.GuionDocName(in.Subapartado), rendered); err != nil {
		return fmt.Errorf("save guion docx: %w", err)
	}
	return nil
}

func (a *Activities) LoadGuionActivity(ctx context.Context, in LoadGuionInput) (LoadGuionOutput, error) {
	folder, err := a.layout.SubapartadoFolder(ctx, in.Project, in.Lot, in.Subapartado)
	if err != nil {
		return LoadGuionOutput{}, err
	}
	file, err := a.layout.Store.FindFile(ctx, folder.ID, guionSourceFile)
	if err != nil {
		return LoadGuionOutput{}, fmt.Errorf("guion for %s: %w", in.Subapartado, err)
	}
	data, err := a.layout.Store.Download(ctx, file.ID)
	if err != nil {
		return LoadGuionOutput{}, err
	}
	return LoadGuionOutput{Markdown: string(data)}, nil
}

// LoadContextPartsActivity collects the support documents a user dropped next
// to a guion so they travel with the decomposition prompt. Pipeline outputs
// in the same folder are skipped.
func (a *Activities) LoadContextPartsActivity(ctx context.Context, in LoadContextPartsInput) (LoadContextPartsOutput, error) {
	folder, err := a.layout.SubapartadoFolder(ctx, in.Project, in.Lot, in.Subapartado)
	if err != nil {
		return LoadContextPartsOutput{}, err
	}
	entries, err := a.layout.Store.List(ctx, folder.ID)
	if err != nil {
		return LoadContextPartsOutput{}, err
	}
	var out LoadContextPartsOutput
	for _, e := range entries {
		if e.IsFolder || e.Name == guionSourceFile || e.Name == store.IndividualPlanFile {
			continue
		}
		lower := strings.ToLower(e.Name)
		if strings.HasSuffix(lower, ".docx") {
			continue
		}
		data, err := a.layout.Store.Download(ctx, e.ID)
		if err != nil {
			return LoadContextPartsOutput{}, fmt.Errorf("download context doc %s: %w", e.Name, err)
		}
		var text string
		switch {
		case strings.HasSuffix(lower, ".pdf"):
			text, err = extractPDFText(data)
			if err != nil {
				continue
			}
		case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".json"):
			text = string(data)
		default:
			continue
		}
		text = util.SanitizeText(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		out.Parts = append(out.Parts, providers.Part{
			Text: fmt.Sprintf("### Documento de apoyo: %s\n\n%s", e.Name, text),
		})
	}
	return out, nil
}

func (a *Activities) SavePromptPlanActivity(ctx context.Context, in SavePromptPlanInput) error {
	folder, err := a.layout.SubapartadoFolder(ctx, in.Project, in.Lot, in.Subapartado)
	if err != nil {
		return err
	}
	return a.replaceJSON(ctx, folder.ID, store.IndividualPlanFile, in.Plan)
}

// UnifyPlansActivity concatenates the per-subapartado plans in store order
// (natural sort over folder names) into the single plan the assembler runs
// from. Subapartados without a saved plan are reported, not fatal.
func (a *Activities) UnifyPlansActivity(ctx context.Context, in UnifyPlansInput) (UnifyPlansOutput, error) {
	guiones, err := a.layout.GuionesFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return UnifyPlansOutput{}, err
	}
	entries, err := a.layout.Store.List(ctx, guiones.ID)
	if err != nil {
		return UnifyPlansOutput{}, err
	}
	names := make([]string, 0, len(entries))
	byName := make(map[string]store.Entry, len(entries))
	for _, e := range entries {
		if !e.IsFolder {
			continue
		}
		names = append(names, e.Name)
		byName[e.Name] = e
	}
	util.SortNatural(names)

	var out UnifyPlansOutput
	for _, name := range names {
		var plan models.PromptPlan
		found, err := a.readJSON(ctx, byName[name].ID, store.IndividualPlanFile, &plan)
		if err != nil {
			return UnifyPlansOutput{}, fmt.Errorf("read plan for %s: %w", name, err)
		}
		if !found {
			out.Missing = append(out.Missing, name)
			continue
		}
		out.Plan.Tasks = append(out.Plan.Tasks, plan.Tasks...)
	}

	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return UnifyPlansOutput{}, err
	}
	if err := a.replaceJSON(ctx, docs.ID, store.UnifiedPlanFileName(in.Lot), out.Plan); err != nil {
		return UnifyPlansOutput{}, err
	}
	return out, nil
}

func (a *Activities) LoadUnifiedPlanActivity(ctx context.Context, in LoadUnifiedPlanInput) (LoadUnifiedPlanOutput, error) {
	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return LoadUnifiedPlanOutput{}, err
	}
	var out LoadUnifiedPlanOutput
	found, err := a.readJSON(ctx, docs.ID, store.UnifiedPlanFileName(in.Lot), &out.Plan)
	if err != nil {
		return LoadUnifiedPlanOutput{}, err
	}
	if !found {
		return LoadUnifiedPlanOutput{}, fmt.Errorf("unified plan %s: %w", store.UnifiedPlanFileName(in.Lot), util.ErrNotFound)
	}
	return out, nil
}

func (a *Activities) RenderFragmentActivity(ctx context.Context, in RenderFragmentInput) (RenderFragmentOutput, error) {
	png, err := a.renderer.RenderPNG(ctx, util.WrapHTMLFragment(in.HTML))
	if err != nil {
		return RenderFragmentOutput{}, fmt.Errorf("render html fragment: %w", err)
	}
	return RenderFragmentOutput{PNG: png}, nil
}

func (a *Activities) SaveBodyDocActivity(ctx context.Context, in SaveBodyDocInput) (SaveBodyDocOutput, error) {
	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return SaveBodyDocOutput{}, err
	}
	var buf bytes.Buffer
	if err := docbuild.WriteDocx(in.Blocks, &buf); err != nil {
		return SaveBodyDocOutput{}, fmt.Errorf("write body docx: %w", err)
	}
	entry, err := store.ReplaceFile(ctx, a.layout.Store, docs.ID, store.BodyDocName(in.Project, in.Lot), buf.Bytes())
	if err != nil {
		return SaveBodyDocOutput{}, err
	}
	return SaveBodyDocOutput{FileID: entry.ID}, nil
}

func (a *Activities) SaveCheckpointActivity(ctx context.Context, in SaveCheckpointInput) error {
	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return err
	}
	return a.replaceJSON(ctx, docs.ID, store.CheckpointFileName(in.Lot), in.State)
}

func (a *Activities) LoadCheckpointActivity(ctx context.Context, in LoadCheckpointInput) (LoadCheckpointOutput, error) {
	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return LoadCheckpointOutput{}, err
	}
	var out LoadCheckpointOutput
	found, err := a.readJSON(ctx, docs.ID, store.CheckpointFileName(in.Lot), &out.State)
	if err != nil {
		return LoadCheckpointOutput{}, err
	}
	out.Found = found
	return out, nil
}

func (a *Activities) DeleteCheckpointActivity(ctx context.Context, in DeleteCheckpointInput) error {
	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return err
	}
	file, err := a.layout.Store.FindFile(ctx, docs.ID, store.CheckpointFileName(in.Lot))
	if errors.Is(err, util.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.layout.Store.Delete(ctx, file.ID)
}

func (a *Activities) ComposeFinalActivity(ctx context.Context, in ComposeFinalInput) (ComposeFinalOutput, error) {
	docs, err := a.layout.DocsFolder(ctx, in.Project, in.Lot)
	if err != nil {
		return ComposeFinalOutput{}, err
	}
	body := &docbuild.Document{BlockList: in.Blocks}
	final := docbuild.ComposeFinal(in.Titulo, in.Estructura, in.IntroMarkdown, body)
	rendered, err := final.Bytes()
	if err != nil {
		return ComposeFinalOutput{}, fmt.Errorf("write final docx: %w", err)
	}
	entry, err := store.ReplaceFile(ctx, a.layout.Store, docs.ID, store.FinalDocName(in.Project, in.Lot), rendered)
	if err != nil {
		return ComposeFinalOutput{}, err
	}
	return ComposeFinalOutput{FileID: entry.ID}, nil
}

func (a *Activities) CreateRunActivity(ctx context.Context, in CreateRunInput) error {
	if a.runRepo == nil {
		return nil
	}
	return a.runRepo.CreateRun(ctx, models.Run{
		RunID:     in.RunID,
		ProjectID: in.ProjectID,
		Lot:       in.Lot,
		Phase:     in.Phase,
		Status:    models.RunStatusRunning,
	})
}

func (a *Activities) UpdateRunStatusActivity(ctx context.Context, in UpdateRunStatusInput) error {
	if a.runRepo == nil {
		return nil
	}
	return a.runRepo.UpdateRunStatus(ctx, in.RunID, in.Status, in.Error)
}

func (a *Activities) UpsertRunItemActivity(ctx context.Context, in UpsertRunItemInput) error {
	if a.runRepo == nil {
		return nil
	}
	return a.runRepo.UpsertItem(ctx, models.RunItem{
		RunID:  in.RunID,
		Item:   in.Item,
		Status: in.Status,
		Error:  in.Error,
	})
}

func (a *Activities) replaceJSON(ctx context.Context, folderID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if _, err := store.ReplaceFile(ctx, a.layout.Store, folderID, name, data); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func (a *Activities) readJSON(ctx context.Context, folderID, name string, v any) (bool, error) {
	file, err := a.layout.Store.FindFile(ctx, folderID, name)
	if errors.Is(err, util.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	data, err := a.layout.Store.Download(ctx, file.ID)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return buf.String(), nil
}
