package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.EnsureProjectActivity)
	w.RegisterActivity(a.ListPliegosActivity)
	w.RegisterActivity(a.ExtractPliegoTextActivity)
	w.RegisterActivity(a.BuildPliegoPartsActivity)
	w.RegisterActivity(a.LLMGenerateActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
	w.RegisterActivity(a.SaveLotAnalysisActivity)
	w.RegisterActivity(a.LoadLotAnalysisActivity)
	w.RegisterActivity(a.SaveIndexActivity)
	w.RegisterActivity(a.LoadIndexActivity)
	w.RegisterActivity(a.SaveGuionActivity)
	w.RegisterActivity(a.LoadGuionActivity)
	w.RegisterActivity(a.LoadContextPartsActivity)
	w.RegisterActivity(a.SavePromptPlanActivity)
	w.RegisterActivity(a.UnifyPlansActivity)
	w.RegisterActivity(a.LoadUnifiedPlanActivity)
	w.RegisterActivity(a.RenderFragmentActivity)
	w.RegisterActivity(a.SaveBodyDocActivity)
	w.RegisterActivity(a.SaveCheckpointActivity)
	w.RegisterActivity(a.LoadCheckpointActivity)
	w.RegisterActivity(a.DeleteCheckpointActivity)
	w.RegisterActivity(a.ComposeFinalActivity)
	w.RegisterActivity(a.CreateRunActivity)
	w.RegisterActivity(a.UpdateRunStatusActivity)
	w.RegisterActivity(a.UpsertRunItemActivity)
}
