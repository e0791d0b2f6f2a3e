package activities

import (
	"context"
	"strings"
	"testing"

	"memoflow/internal/config"
	"memoflow/internal/models"
	"memoflow/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestActivities(t *testing.T) *Activities {
	t.Helper()
	fs, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	a, err := New(config.Config{LLMProviders: "mock"}, fs, nil, nil)
	require.NoError(t, err)
	return a
}

func TestLotAnalysisRoundTrip(t *testing.T) {
	a := newTestActivities(t)
	ctx := context.Background()

	missing, err := a.LoadLotAnalysisActivity(ctx, LoadLotAnalysisInput{Project: "Alumbrado"})
	require.NoError(t, err)
	require.False(t, missing.Found)

	analysis := models.LotAnalysis{TieneLotes: true, Lotes: []string{"Lote 1", "Lote 2"}}
	require.NoError(t, a.SaveLotAnalysisActivity(ctx, SaveLotAnalysisInput{Project: "Alumbrado", Analysis: analysis}))

	loaded, err := a.LoadLotAnalysisActivity(ctx, LoadLotAnalysisInput{Project: "Alumbrado"})
	require.NoError(t, err)
	require.True(t, loaded.Found)
	require.Equal(t, analysis, loaded.Analysis)
}

func TestBuildPliegoPartsChunksOversizedDocument(t *testing.T) {
	a := newTestActivities(t)
	ctx := context.Background()

	pliegos, err := a.layout.PliegosFolder(ctx, "Alumbrado")
	require.NoError(t, err)
	long := strings.Repeat("Cláusula administrativa. ", 40)
	_, err = store.ReplaceFile(ctx, a.layout.Store, pliegos.ID, "pliego_administrativo.txt", []byte(long))
	require.NoError(t, err)
	_, err = store.ReplaceFile(ctx, a.layout.Store, pliegos.ID, "anexo.txt", []byte("Anexo breve."))
	require.NoError(t, err)

	out, err := a.BuildPliegoPartsActivity(ctx, BuildPliegoPartsInput{Project: "Alumbrado", MaxChars: 200})
	require.NoError(t, err)
	require.Greater(t, len(out.Parts), 2)

	var chunked, whole int
	for _, p := range out.Parts {
		switch {
		case strings.Contains(p.Text, "pliego_administrativo.txt (parte"):
			chunked++
			require.Less(t, len(p.Text), len(long))
		case strings.Contains(p.Text, "anexo.txt"):
			whole++
			require.Contains(t, p.Text, "Anexo breve.")
		}
	}
	require.Greater(t, chunked, 1)
	require.Equal(t, 1, whole)
}

func TestSaveIndexOverwrites(t *testing.T) {
	a := newTestActivities(t)
	ctx := context.Background()

	first := models.TenderIndex{TituloMemoria: "v1", Estructura: []models.Apartado{{Apartado: "1. Plan", Subapartados: []string{"1.1"}}}}
	require.NoError(t, a.SaveIndexActivity(ctx, SaveIndexInput{Project: "P", Lot: models.GeneralLot, Index: first}))

	second := first
	second.TituloMemoria = "v2"
	require.NoError(t, a.SaveIndexActivity(ctx, SaveIndexInput{Project: "P", Lot: models.GeneralLot, Index: second}))

	loaded, err := a.LoadIndexActivity(ctx, LoadIndexInput{Project: "P", Lot: models.GeneralLot})
	require.NoError(t, err)
	require.Equal(t, "v2", loaded.Index.TituloMemoria)
}

func TestSaveGuionWritesSourceAndDocx(t *testing.T) {
	a := newTestActivities(t)
	ctx := context.Background()

	require.NoError(t, a.SaveGuionActivity(ctx, SaveGuionInput{
		Project: "P", Lot: models.GeneralLot, Subapartado: "1.1 Metodología",
		Markdown: "## Enfoque\n\nTexto.\n",
	}))

	guion, err := a.LoadGuionActivity(ctx, LoadGuionInput{Project: "P", Lot: models.GeneralLot, Subapartado: "1.1 Metodología"})
	require.NoError(t, err)
	require.Contains(t, guion.Markdown, "Enfoque")

	folder, err := a.layout.SubapartadoFolder(ctx, "P", models.GeneralLot, "1.1 Metodología")
	require.NoError(t, err)
	_, err = a.layout.Store.FindFile(ctx, folder.ID, store.GuionDocName("1.1 Metodología"))
	require.NoError(t, err)
}

func TestUnifyPlansNaturalOrderAndMissing(t *testing.T) {
	a := newTestActivities(t)
	ctx := context.Background()

	planFor := func(sub, promptID string) models.PromptPlan {
		return models.PromptPlan{Tasks: []models.PromptTask{{
			ApartadoReferencia:    "1. Plan",
			SubapartadoReferencia: sub,
			PromptID:              promptID,
			PromptParaAsistente:   "Redacta " + sub,
		}}}
	}
	require.NoError(t, a.SavePromptPlanActivity(ctx, SavePromptPlanInput{Project: "P", Lot: models.GeneralLot, Subapartado: "1.10 Cierre", Plan: planFor("1.10 Cierre", "1_10_TEXTO_1")}))
	require.NoError(t, a.SavePromptPlanActivity(ctx, SavePromptPlanInput{Project: "P", Lot: models.GeneralLot, Subapartado: "1.2 Alcance", Plan: planFor("1.2 Alcance", "1_2_TEXTO_1")}))
	// Folder without a saved plan.
	_, err := a.layout.SubapartadoFolder(ctx, "P", models.GeneralLot, "1.9 Riesgos")
	require.NoError(t, err)

	out, err := a.UnifyPlansActivity(ctx, UnifyPlansInput{Project: "P", Lot: models.GeneralLot})
	require.NoError(t, err)
	require.Equal(t, []string{"1.9 Riesgos"}, out.Missing)
	require.Len(t, out.Plan.Tasks, 2)
	require.Equal(t, "1_2_TEXTO_1", out.Plan.Tasks[0].PromptID)
	require.Equal(t, "1_10_TEXTO_1", out.Plan.Tasks[1].PromptID)

	loaded, err := a.LoadUnifiedPlanActivity(ctx, LoadUnifiedPlanInput{Project: "P", Lot: models.GeneralLot})
	require.NoError(t, err)
	require.Equal(t, out.Plan, loaded.Plan)
}

func TestCheckpointLifecycle(t *testing.T) {
	a := newTestActivities(t)
	ctx := context.Background()

	// Deleting an absent checkpoint is not an error.
	require.NoError(t, a.DeleteCheckpointActivity(ctx, DeleteCheckpointInput{Project: "P", Lot: models.GeneralLot}))

	empty, err := a.LoadCheckpointActivity(ctx, LoadCheckpointInput{Project: "P", Lot: models.GeneralLot})
	require.NoError(t, err)
	require.False(t, empty.Found)

	state := AssemblyState{NextTask: 3}
	require.NoError(t, a.SaveCheckpointActivity(ctx, SaveCheckpointInput{Project: "P", Lot: models.GeneralLot, State: state}))

	loaded, err := a.LoadCheckpointActivity(ctx, LoadCheckpointInput{Project: "P", Lot: models.GeneralLot})
	require.NoError(t, err)
	require.True(t, loaded.Found)
	require.Equal(t, 3, loaded.State.NextTask)

	require.NoError(t, a.DeleteCheckpointActivity(ctx, DeleteCheckpointInput{Project: "P", Lot: models.GeneralLot}))
	gone, err := a.LoadCheckpointActivity(ctx, LoadCheckpointInput{Project: "P", Lot: models.GeneralLot})
	require.NoError(t, err)
	require.False(t, gone.Found)
}

func TestLLMGenerateActivityUsesMockProvider(t *testing.T) {
	a := newTestActivities(t)
	out, err := a.LLMGenerateActivity(context.Background(), LLMGenerateInput{Operation: "generate_guion", Prompt: "hola"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Text)
	require.Equal(t, "mock", out.ProviderName)
}
