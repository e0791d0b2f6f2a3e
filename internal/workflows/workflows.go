package workflows

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"memoflow/internal/activities"
	"memoflow/internal/docbuild"
	"memoflow/internal/index"
	"memoflow/internal/models"
	"memoflow/internal/plan"
	"memoflow/internal/prompts"
	"memoflow/internal/providers"
	"memoflow/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetBatchProgress    = "GetBatchProgress"
	QueryGetAssemblyProgress = "GetAssemblyProgress"
)

func storeActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	})
}

// llmActivityOptions disables the platform retry so the reattempt loop in
// callModelWithRetry is the only one deciding what gets retried.
func llmActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
}

func (r RetrySettings) withDefaults() RetrySettings {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 5
	}
	if r.DelaySeconds <= 0 {
		r.DelaySeconds = 60
	}
	return r
}

func (c CalibrationSettings) calibration() plan.Calibration {
	cal := plan.DefaultCalibration()
	if c.SafetyFactor > 0 {
		cal.SafetyFactor = c.SafetyFactor
	}
	if c.MinCharsPerPage > 0 {
		cal.MinCharsPerPage = c.MinCharsPerPage
	}
	if c.MaxCharsPerPage > 0 {
		cal.MaxCharsPerPage = c.MaxCharsPerPage
	}
	return cal
}

// callModelWithRetry runs one logical model call. Only rate-limit failures
// are reattempted; any other class fails the call on the first hit. The wait
// between attempts is a fixed delay, or delay*2^attempt when exponential
// backoff is requested. Exhaustion returns the last error rather than
// panicking the workflow.
func callModelWithRetry(ctx workflow.Context, in activities.LLMGenerateInput, settings RetrySettings) (activities.LLMGenerateOutput, error) {
	settings = settings.withDefaults()
	llmCtx := llmActivityOptions(ctx)
	logCtx := storeActivityOptions(ctx)
	var lastErr error
	for attempt := 0; attempt < settings.MaxAttempts; attempt++ {
		var out activities.LLMGenerateOutput
		err := workflow.ExecuteActivity(llmCtx, "LLMGenerateActivity", in).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(logCtx, "LogLLMCallActivity", activities.LogLLMCallInput{
				RunID: in.RunID, Phase: in.Phase, ProviderName: out.ProviderName, Model: out.Model, LatencyMS: out.LatencyMS,
			}).Get(ctx, nil)
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(logCtx, "LogLLMCallActivity", activities.LogLLMCallInput{
			RunID: in.RunID, Phase: in.Phase, ProviderName: in.ProviderName, ErrorType: string(errType),
		}).Get(ctx, nil)
		if !providers.Retryable(errType) {
			return activities.LLMGenerateOutput{}, err
		}
		if attempt == settings.MaxAttempts-1 {
			break
		}
		wait := time.Duration(settings.DelaySeconds) * time.Second
		if settings.Exponential {
			wait = time.Duration(settings.DelaySeconds*(1<<attempt)) * time.Second
		}
		_ = workflow.Sleep(ctx, wait)
	}
	return activities.LLMGenerateOutput{}, fmt.Errorf("model call %s exhausted %d attempts: %w", in.Operation, settings.MaxAttempts, lastErr)
}

func LotAnalysisWorkflow(ctx workflow.Context, input LotAnalysisInput) (LotAnalysisOutput, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	storeCtx := storeActivityOptions(ctx)

	var proj activities.EnsureProjectOutput
	if err := workflow.ExecuteActivity(storeCtx, "EnsureProjectActivity", activities.EnsureProjectInput{Project: input.Project}).Get(ctx, &proj); err != nil {
		return LotAnalysisOutput{}, err
	}
	_ = workflow.ExecuteActivity(storeCtx, "CreateRunActivity", activities.CreateRunInput{
		RunID: runID, ProjectID: proj.ProjectID, Lot: models.GeneralLot, Phase: models.PhaseLots,
	}).Get(ctx, nil)

	var parts activities.BuildPliegoPartsOutput
	if err := workflow.ExecuteActivity(storeCtx, "BuildPliegoPartsActivity", activities.BuildPliegoPartsInput{Project: input.Project}).Get(ctx, &parts); err != nil {
		return LotAnalysisOutput{}, failRun(ctx, runID, err)
	}

	out, err := callModelWithRetry(ctx, activities.LLMGenerateInput{
		Operation:     "analyze_lots",
		RunID:         runID,
		Phase:         models.PhaseLots,
		ProviderIndex: input.ProviderIndex,
		Prompt:        prompts.BuildLotAnalysisPrompt(),
		Parts:         parts.Parts,
		JSONMode:      true,
	}, input.Retry)
	if err != nil {
		return LotAnalysisOutput{}, failRun(ctx, runID, err)
	}

	analysis, err := index.ParseLotAnalysis(out.Text)
	if err != nil {
		return LotAnalysisOutput{}, failRun(ctx, runID, err)
	}
	if err := workflow.ExecuteActivity(storeCtx, "SaveLotAnalysisActivity", activities.SaveLotAnalysisInput{
		Project: input.Project, Analysis: analysis,
	}).Get(ctx, nil); err != nil {
		return LotAnalysisOutput{}, failRun(ctx, runID, err)
	}
	completeRun(ctx, runID)
	return LotAnalysisOutput{TieneLotes: analysis.TieneLotes, Lotes: analysis.Lotes}, nil
}

func IndexWorkflow(ctx workflow.Context, input IndexInput) (IndexOutput, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	storeCtx := storeActivityOptions(ctx)
	cal := input.Calibration.calibration()

	var proj activities.EnsureProjectOutput
	if err := workflow.ExecuteActivity(storeCtx, "EnsureProjectActivity", activities.EnsureProjectInput{Project: input.Project}).Get(ctx, &proj); err != nil {
		return IndexOutput{}, err
	}
	_ = workflow.ExecuteActivity(storeCtx, "CreateRunActivity", activities.CreateRunInput{
		RunID: runID, ProjectID: proj.ProjectID, Lot: input.Lot, Phase: models.PhaseIndex,
	}).Get(ctx, nil)

	if input.Lot != models.GeneralLot {
		var analysis activities.LoadLotAnalysisOutput
		if err := workflow.ExecuteActivity(storeCtx, "LoadLotAnalysisActivity", activities.LoadLotAnalysisInput{
			Project: input.Project,
		}).Get(ctx, &analysis); err != nil {
			return IndexOutput{}, failRun(ctx, runID, err)
		}
		if analysis.Found && !slices.Contains(analysis.Analysis.Lotes, input.Lot) {
			return IndexOutput{}, failRun(ctx, runID, fmt.Errorf("lot %q not present in lot analysis", input.Lot))
		}
	}

	var parts activities.BuildPliegoPartsOutput
	if err := workflow.ExecuteActivity(storeCtx, "BuildPliegoPartsActivity", activities.BuildPliegoPartsInput{Project: input.Project}).Get(ctx, &parts); err != nil {
		return IndexOutput{}, failRun(ctx, runID, err)
	}

	prompt := prompts.BuildIndexPrompt(input.Lot)
	if strings.TrimSpace(input.Feedback) != "" {
		var prev activities.LoadIndexOutput
		if err := workflow.ExecuteActivity(storeCtx, "LoadIndexActivity", activities.LoadIndexInput{
			Project: input.Project, Lot: input.Lot,
		}).Get(ctx, &prev); err != nil {
			return IndexOutput{}, failRun(ctx, runID, err)
		}
		prevJSON, err := json.Marshal(prev.Index)
		if err != nil {
			return IndexOutput{}, failRun(ctx, runID, err)
		}
		prompt = prompts.BuildIndexFeedbackPrompt(input.Lot, input.Feedback, string(prevJSON))
	}

	out, err := callModelWithRetry(ctx, activities.LLMGenerateInput{
		Operation:     "generate_index",
		RunID:         runID,
		Phase:         models.PhaseIndex,
		ProviderIndex: input.ProviderIndex,
		Prompt:        prompt,
		Parts:         parts.Parts,
		JSONMode:      true,
	}, input.Retry)
	if err != nil {
		return IndexOutput{}, failRun(ctx, runID, err)
	}

	idx, err := index.ParseTenderIndex(out.Text)
	if err != nil {
		return IndexOutput{}, failRun(ctx, runID, err)
	}
	idx = index.Normalize(idx, cal)
	idx = plan.ApplySafetyMargin(idx, cal)

	if err := workflow.ExecuteActivity(storeCtx, "SaveIndexActivity", activities.SaveIndexInput{
		Project: input.Project, Lot: input.Lot, Index: idx,
	}).Get(ctx, nil); err != nil {
		return IndexOutput{}, failRun(ctx, runID, err)
	}
	completeRun(ctx, runID)
	return IndexOutput{TituloMemoria: idx.TituloMemoria, Apartados: len(idx.Estructura)}, nil
}

func GuionWorkflow(ctx workflow.Context, input GuionInput) (string, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	storeCtx := storeActivityOptions(ctx)
	cal := input.Calibration.calibration()

	var loaded activities.LoadIndexOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadIndexActivity", activities.LoadIndexInput{
		Project: input.Project, Lot: input.Lot,
	}).Get(ctx, &loaded); err != nil {
		return "", err
	}
	apartado := apartadoFor(loaded.Index, input.Subapartado)
	if apartado == "" {
		return "", fmt.Errorf("subapartado %q not present in index", input.Subapartado)
	}
	matiz := index.MatizFor(loaded.Index, apartado, input.Subapartado)
	minChars, maxChars := plan.SubapartadoBudget(loaded.Index, apartado, input.Subapartado, cal)

	var parts activities.BuildPliegoPartsOutput
	if err := workflow.ExecuteActivity(storeCtx, "BuildPliegoPartsActivity", activities.BuildPliegoPartsInput{Project: input.Project}).Get(ctx, &parts); err != nil {
		return "", err
	}

	prompt := prompts.BuildGuionPrompt(apartado, input.Subapartado, matiz.Indicaciones, matiz.PalabrasClave, minChars, maxChars)
	if strings.TrimSpace(input.Feedback) != "" {
		var prev activities.LoadGuionOutput
		if err := workflow.ExecuteActivity(storeCtx, "LoadGuionActivity", activities.LoadGuionInput{
			Project: input.Project, Lot: input.Lot, Subapartado: input.Subapartado,
		}).Get(ctx, &prev); err != nil {
			return "", err
		}
		prompt = prompts.BuildGuionFeedbackPrompt(prompt, input.Feedback, prev.Markdown)
	}

	out, err := callModelWithRetry(ctx, activities.LLMGenerateInput{
		Operation:     "generate_guion",
		RunID:         runID,
		Phase:         models.PhaseGuiones,
		ProviderIndex: input.ProviderIndex,
		Prompt:        prompt,
		Parts:         parts.Parts,
	}, input.Retry)
	if err != nil {
		return "", err
	}

	markdown := util.StripResponseWrapper(out.Text, input.Subapartado)
	markdown = util.RenumberOrderedLists(markdown)
	if err := workflow.ExecuteActivity(storeCtx, "SaveGuionActivity", activities.SaveGuionInput{
		Project: input.Project, Lot: input.Lot, Subapartado: input.Subapartado, Markdown: markdown,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	return models.TaskStatusDone, nil
}

func GuionBatchWorkflow(ctx workflow.Context, input GuionBatchInput) (BatchOutput, error) {
	subs, err := batchSubapartados(ctx, input.Project, input.Lot, input.Subapartados)
	if err != nil {
		return BatchOutput{}, err
	}
	return runBatch(ctx, input.Project, input.Lot, models.PhaseGuiones, subs, input.MaxConcurrentChildren, func(childCtx workflow.Context, sub string) workflow.ChildWorkflowFuture {
		return workflow.ExecuteChildWorkflow(childCtx, GuionWorkflow, GuionInput{
			Project:       input.Project,
			Lot:           input.Lot,
			Subapartado:   sub,
			ProviderIndex: input.ProviderIndex,
			Retry:         input.Retry,
			Calibration:   input.Calibration,
		})
	})
}

func PlanWorkflow(ctx workflow.Context, input PlanInput) (string, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	storeCtx := storeActivityOptions(ctx)
	cal := input.Calibration.calibration()

	var loaded activities.LoadIndexOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadIndexActivity", activities.LoadIndexInput{
		Project: input.Project, Lot: input.Lot,
	}).Get(ctx, &loaded); err != nil {
		return "", err
	}
	apartado := apartadoFor(loaded.Index, input.Subapartado)
	if apartado == "" {
		return "", fmt.Errorf("subapartado %q not present in index", input.Subapartado)
	}
	minChars, maxChars := plan.SubapartadoBudget(loaded.Index, apartado, input.Subapartado, cal)

	var guion activities.LoadGuionOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadGuionActivity", activities.LoadGuionInput{
		Project: input.Project, Lot: input.Lot, Subapartado: input.Subapartado,
	}).Get(ctx, &guion); err != nil {
		return "", err
	}
	var contextParts activities.LoadContextPartsOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadContextPartsActivity", activities.LoadContextPartsInput{
		Project: input.Project, Lot: input.Lot, Subapartado: input.Subapartado,
	}).Get(ctx, &contextParts); err != nil {
		return "", err
	}

	out, err := callModelWithRetry(ctx, activities.LLMGenerateInput{
		Operation:     "decompose_guion",
		RunID:         runID,
		Phase:         models.PhasePlans,
		ProviderIndex: input.ProviderIndex,
		Prompt:        prompts.BuildDecomposePrompt(apartado, input.Subapartado, guion.Markdown, loaded.Index.Configuracion.ReglasFormato, minChars, maxChars),
		Parts:         contextParts.Parts,
		JSONMode:      true,
	}, input.Retry)
	if err != nil {
		return "", err
	}

	parsed, err := index.ParsePromptPlan(out.Text)
	if err != nil {
		return "", err
	}
	for i := range parsed.Tasks {
		if strings.TrimSpace(parsed.Tasks[i].ApartadoReferencia) == "" {
			parsed.Tasks[i].ApartadoReferencia = apartado
		}
		if strings.TrimSpace(parsed.Tasks[i].SubapartadoReferencia) == "" {
			parsed.Tasks[i].SubapartadoReferencia = input.Subapartado
		}
	}
	if err := workflow.ExecuteActivity(storeCtx, "SavePromptPlanActivity", activities.SavePromptPlanInput{
		Project: input.Project, Lot: input.Lot, Subapartado: input.Subapartado, Plan: parsed,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	return models.TaskStatusDone, nil
}

func PlanBatchWorkflow(ctx workflow.Context, input PlanBatchInput) (BatchOutput, error) {
	subs, err := batchSubapartados(ctx, input.Project, input.Lot, input.Subapartados)
	if err != nil {
		return BatchOutput{}, err
	}
	out, err := runBatch(ctx, input.Project, input.Lot, models.PhasePlans, subs, input.MaxConcurrentChildren, func(childCtx workflow.Context, sub string) workflow.ChildWorkflowFuture {
		return workflow.ExecuteChildWorkflow(childCtx, PlanWorkflow, PlanInput{
			Project:       input.Project,
			Lot:           input.Lot,
			Subapartado:   sub,
			ProviderIndex: input.ProviderIndex,
			Retry:         input.Retry,
			Calibration:   input.Calibration,
		})
	})
	if err != nil {
		return BatchOutput{}, err
	}
	storeCtx := storeActivityOptions(ctx)
	var unified activities.UnifyPlansOutput
	if err := workflow.ExecuteActivity(storeCtx, "UnifyPlansActivity", activities.UnifyPlansInput{
		Project: input.Project, Lot: input.Lot,
	}).Get(ctx, &unified); err != nil {
		return BatchOutput{}, err
	}
	out.Missing = unified.Missing
	return out, nil
}

// batchSubapartados resolves the fan-out item list: an explicit selection
// when given, otherwise every subapartado of the stored index in order.
func batchSubapartados(ctx workflow.Context, project, lot string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	storeCtx := storeActivityOptions(ctx)
	var loaded activities.LoadIndexOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadIndexActivity", activities.LoadIndexInput{
		Project: project, Lot: lot,
	}).Get(ctx, &loaded); err != nil {
		return nil, err
	}
	var subs []string
	for _, ap := range loaded.Index.Estructura {
		subs = append(subs, ap.Subapartados...)
	}
	return subs, nil
}

// runBatch fans out one child workflow per item with a bounded in-flight
// window. A failed child never cancels its siblings; the batch completes and
// reports partial status when any item failed.
func runBatch(ctx workflow.Context, project, lot, phase string, items []string, maxChildren int, spawn func(workflow.Context, string) workflow.ChildWorkflowFuture) (BatchOutput, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	storeCtx := storeActivityOptions(ctx)

	progress := BatchProgress{Total: len(items), PerItem: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetBatchProgress, func() (BatchProgress, error) {
		return progress, nil
	}); err != nil {
		return BatchOutput{}, err
	}

	var proj activities.EnsureProjectOutput
	if err := workflow.ExecuteActivity(storeCtx, "EnsureProjectActivity", activities.EnsureProjectInput{Project: project}).Get(ctx, &proj); err != nil {
		return BatchOutput{}, err
	}
	_ = workflow.ExecuteActivity(storeCtx, "CreateRunActivity", activities.CreateRunInput{
		RunID: runID, ProjectID: proj.ProjectID, Lot: lot, Phase: phase,
	}).Get(ctx, nil)

	if maxChildren <= 0 {
		maxChildren = 4
	}
	for i := 0; i < len(items); i += maxChildren {
		end := i + maxChildren
		if end > len(items) {
			end = len(items)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		batchItems := make([]string, 0, end-i)
		for _, item := range items[i:end] {
			progress.PerItem[item] = models.TaskStatusRunning
			_ = workflow.ExecuteActivity(storeCtx, "UpsertRunItemActivity", activities.UpsertRunItemInput{
				RunID: runID, Item: item, Status: models.TaskStatusRunning,
			}).Get(ctx, nil)
			workflowID := phase + "-" + sanitizeID(project) + "-" + sanitizeID(lot) + "-" + sanitizeID(item)
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: workflowID})
			futures = append(futures, spawn(childCtx, item))
			batchItems = append(batchItems, item)
		}
		for idx, f := range futures {
			item := batchItems[idx]
			var childStatus string
			if err := f.Get(ctx, &childStatus); err != nil {
				progress.Failed++
				progress.PerItem[item] = models.TaskStatusFailed
				_ = workflow.ExecuteActivity(storeCtx, "UpsertRunItemActivity", activities.UpsertRunItemInput{
					RunID: runID, Item: item, Status: models.TaskStatusFailed, Error: err.Error(),
				}).Get(ctx, nil)
				continue
			}
			progress.Done++
			progress.PerItem[item] = models.TaskStatusDone
			_ = workflow.ExecuteActivity(storeCtx, "UpsertRunItemActivity", activities.UpsertRunItemInput{
				RunID: runID, Item: item, Status: models.TaskStatusDone,
			}).Get(ctx, nil)
		}
	}

	status := models.RunStatusComplete
	if progress.Failed > 0 {
		status = models.RunStatusPartial
	}
	_ = workflow.ExecuteActivity(storeCtx, "UpdateRunStatusActivity", activities.UpdateRunStatusInput{
		RunID: runID, Status: status,
	}).Get(ctx, nil)
	return BatchOutput{Status: status, Total: progress.Total, Failed: progress.Failed, PerItem: progress.PerItem}, nil
}

// AssemblyWorkflow executes the unified plan sequentially as one stateful
// chat session. Unlike the fan-out phases it is fail-fast: the first task
// failure checkpoints progress and aborts, so the document never silently
// skips a section.
func AssemblyWorkflow(ctx workflow.Context, input AssemblyInput) (AssemblyOutput, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	storeCtx := storeActivityOptions(ctx)
	cal := input.Calibration.calibration()

	progress := AssemblyProgress{}
	if err := workflow.SetQueryHandler(ctx, QueryGetAssemblyProgress, func() (AssemblyProgress, error) {
		return progress, nil
	}); err != nil {
		return AssemblyOutput{}, err
	}

	var proj activities.EnsureProjectOutput
	if err := workflow.ExecuteActivity(storeCtx, "EnsureProjectActivity", activities.EnsureProjectInput{Project: input.Project}).Get(ctx, &proj); err != nil {
		return AssemblyOutput{}, err
	}
	_ = workflow.ExecuteActivity(storeCtx, "CreateRunActivity", activities.CreateRunInput{
		RunID: runID, ProjectID: proj.ProjectID, Lot: input.Lot, Phase: models.PhaseAssembly,
	}).Get(ctx, nil)

	var planOut activities.LoadUnifiedPlanOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadUnifiedPlanActivity", activities.LoadUnifiedPlanInput{
		Project: input.Project, Lot: input.Lot,
	}).Get(ctx, &planOut); err != nil {
		return AssemblyOutput{}, failRun(ctx, runID, err)
	}
	tasks := planOut.Plan.Tasks
	sortTasks(tasks)
	fragments := plan.CountFragments(tasks)
	progress.Total = len(tasks)

	var loaded activities.LoadIndexOutput
	if err := workflow.ExecuteActivity(storeCtx, "LoadIndexActivity", activities.LoadIndexInput{
		Project: input.Project, Lot: input.Lot,
	}).Get(ctx, &loaded); err != nil {
		return AssemblyOutput{}, failRun(ctx, runID, err)
	}

	state := activities.AssemblyState{}
	if input.Resume {
		var cp activities.LoadCheckpointOutput
		if err := workflow.ExecuteActivity(storeCtx, "LoadCheckpointActivity", activities.LoadCheckpointInput{
			Project: input.Project, Lot: input.Lot,
		}).Get(ctx, &cp); err != nil {
			return AssemblyOutput{}, failRun(ctx, runID, err)
		}
		if cp.Found && cp.State.NextTask <= len(tasks) {
			state = cp.State
		}
	}
	progress.Done = state.NextTask

	doc := &docbuild.Document{BlockList: state.Blocks}
	lastApartado, lastSubapartado := headingsBefore(tasks, state.NextTask)

	for i := state.NextTask; i < len(tasks); i++ {
		task := tasks[i]
		progress.CurrentTask = task.PromptID

		if task.ApartadoReferencia != lastApartado {
			if lastApartado != "" {
				doc.AddPageBreak()
			}
			doc.AddHeading(task.ApartadoReferencia, 1)
			lastApartado = task.ApartadoReferencia
			lastSubapartado = ""
		}
		if task.SubapartadoReferencia != "" && task.SubapartadoReferencia != lastSubapartado {
			doc.AddHeading(task.SubapartadoReferencia, 2)
			lastSubapartado = task.SubapartadoReferencia
		}

		prompt := task.PromptParaAsistente
		if plan.NeedsFragmentBudget(prompt) {
			minChars, maxChars := plan.SubapartadoBudget(loaded.Index, task.ApartadoReferencia, task.SubapartadoReferencia, cal)
			prompt = plan.SubstituteFragmentBudget(prompt, minChars, maxChars, plan.FragmentsFor(fragments, task.ApartadoReferencia, task.SubapartadoReferencia))
		}

		out, err := callModelWithRetry(ctx, activities.LLMGenerateInput{
			Operation:     "assemble_" + task.PromptID,
			RunID:         runID,
			Phase:         models.PhaseAssembly,
			ProviderIndex: input.ProviderIndex,
			Prompt:        prompt,
			History:       state.History,
		}, input.Retry)
		if err != nil {
			state.NextTask = i
			state.Blocks = doc.BlockList
			_ = workflow.ExecuteActivity(storeCtx, "SaveCheckpointActivity", activities.SaveCheckpointInput{
				Project: input.Project, Lot: input.Lot, State: state,
			}).Get(ctx, nil)
			_ = workflow.ExecuteActivity(storeCtx, "UpdateRunStatusActivity", activities.UpdateRunStatusInput{
				RunID: runID, Status: models.RunStatusAborted, Error: err.Error(),
			}).Get(ctx, nil)
			return AssemblyOutput{Status: models.RunStatusAborted, Total: len(tasks), Done: i, FailedTask: task.PromptID}, nil
		}

		if util.LooksLikeHTML(task.PromptID, out.Text) {
			var rendered activities.RenderFragmentOutput
			if err := workflow.ExecuteActivity(storeCtx, "RenderFragmentActivity", activities.RenderFragmentInput{HTML: out.Text}).Get(ctx, &rendered); err != nil {
				return AssemblyOutput{}, failRun(ctx, runID, err)
			}
			doc.AddImage(rendered.PNG)
		} else {
			markdown := util.StripResponseWrapper(out.Text, task.SubapartadoReferencia)
			doc.AppendMarkdown(util.RenumberOrderedLists(markdown))
		}

		state.History = append(state.History,
			providers.Turn{Role: "user", Text: prompt},
			providers.Turn{Role: "model", Text: out.Text},
		)
		state.NextTask = i + 1
		state.Blocks = doc.BlockList
		if err := workflow.ExecuteActivity(storeCtx, "SaveCheckpointActivity", activities.SaveCheckpointInput{
			Project: input.Project, Lot: input.Lot, State: state,
		}).Get(ctx, nil); err != nil {
			return AssemblyOutput{}, failRun(ctx, runID, err)
		}
		progress.Done = i + 1
	}
	progress.CurrentTask = ""

	var body activities.SaveBodyDocOutput
	if err := workflow.ExecuteActivity(storeCtx, "SaveBodyDocActivity", activities.SaveBodyDocInput{
		Project: input.Project, Lot: input.Lot, Blocks: doc.BlockList,
	}).Get(ctx, &body); err != nil {
		return AssemblyOutput{}, failRun(ctx, runID, err)
	}

	result := AssemblyOutput{Status: models.RunStatusComplete, Total: len(tasks), Done: len(tasks), BodyFileID: body.FileID}
	if !input.SkipFinal {
		apartados := make([]string, 0, len(loaded.Index.Estructura))
		for _, ap := range loaded.Index.Estructura {
			apartados = append(apartados, ap.Apartado)
		}
		intro, err := callModelWithRetry(ctx, activities.LLMGenerateInput{
			Operation:     "generate_intro",
			RunID:         runID,
			Phase:         models.PhaseFinal,
			ProviderIndex: input.ProviderIndex,
			Prompt:        prompts.BuildIntroPrompt(loaded.Index.TituloMemoria, apartados),
		}, input.Retry)
		if err != nil {
			return AssemblyOutput{}, failRun(ctx, runID, err)
		}
		var final activities.ComposeFinalOutput
		if err := workflow.ExecuteActivity(storeCtx, "ComposeFinalActivity", activities.ComposeFinalInput{
			Project:       input.Project,
			Lot:           input.Lot,
			Titulo:        loaded.Index.TituloMemoria,
			Estructura:    loaded.Index.Estructura,
			IntroMarkdown: util.StripResponseWrapper(intro.Text, "Introducción"),
			Blocks:        doc.BlockList,
		}).Get(ctx, &final); err != nil {
			return AssemblyOutput{}, failRun(ctx, runID, err)
		}
		result.FinalFileID = final.FileID
	}

	_ = workflow.ExecuteActivity(storeCtx, "DeleteCheckpointActivity", activities.DeleteCheckpointInput{
		Project: input.Project, Lot: input.Lot,
	}).Get(ctx, nil)
	completeRun(ctx, runID)
	return result, nil
}

// sortTasks orders the plan by apartado, then subapartado, then prompt id,
// comparing digit runs numerically so "Tarea_10" follows "Tarea_9".
func sortTasks(tasks []models.PromptTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if c := util.NaturalCompare(tasks[i].ApartadoReferencia, tasks[j].ApartadoReferencia); c != 0 {
			return c < 0
		}
		if c := util.NaturalCompare(tasks[i].SubapartadoReferencia, tasks[j].SubapartadoReferencia); c != 0 {
			return c < 0
		}
		return util.NaturalCompare(tasks[i].PromptID, tasks[j].PromptID) < 0
	})
}

// headingsBefore returns the apartado and subapartado headings already
// emitted when resuming from a checkpoint at task position next.
func headingsBefore(tasks []models.PromptTask, next int) (apartado, subapartado string) {
	if next <= 0 || next > len(tasks) {
		return "", ""
	}
	last := tasks[next-1]
	return last.ApartadoReferencia, last.SubapartadoReferencia
}

func apartadoFor(idx models.TenderIndex, subapartado string) string {
	for _, ap := range idx.Estructura {
		for _, sub := range ap.Subapartados {
			if sub == subapartado {
				return ap.Apartado
			}
		}
	}
	return ""
}

func failRun(ctx workflow.Context, runID string, err error) error {
	storeCtx := storeActivityOptions(ctx)
	_ = workflow.ExecuteActivity(storeCtx, "UpdateRunStatusActivity", activities.UpdateRunStatusInput{
		RunID: runID, Status: models.RunStatusAborted, Error: err.Error(),
	}).Get(ctx, nil)
	return err
}

func completeRun(ctx workflow.Context, runID string) {
	storeCtx := storeActivityOptions(ctx)
	_ = workflow.ExecuteActivity(storeCtx, "UpdateRunStatusActivity", activities.UpdateRunStatusInput{
		RunID: runID, Status: models.RunStatusComplete,
	}).Get(ctx, nil)
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
