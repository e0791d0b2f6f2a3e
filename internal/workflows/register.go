package workflows

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker) {
	w.RegisterWorkflow(LotAnalysisWorkflow)
	w.RegisterWorkflow(IndexWorkflow)
	w.RegisterWorkflow(GuionWorkflow)
	w.RegisterWorkflow(GuionBatchWorkflow)
	w.RegisterWorkflow(PlanWorkflow)
	w.RegisterWorkflow(PlanBatchWorkflow)
	w.RegisterWorkflow(AssemblyWorkflow)
}
