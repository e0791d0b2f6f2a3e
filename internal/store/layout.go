package store

import (
	"context"
	"fmt"

	"memoflow/internal/models"
	"memoflow/internal/util"
)

// Folder and file naming used inside the document store. The layout is:
//
//	ProyectosLicitaciones/
//	  <project>/
//	    Pliegos/
//	    [<lot>/]
//	      Documentos aplicación/
//	      Guiones de Subapartados/
//	        <subapartado>/
//
// For the general (no lots) analysis the lot level is skipped and the two
// working folders hang directly off the project folder.
const (
	RootFolderName    = "ProyectosLicitaciones"
	PliegosFolder     = "Pliegos"
	DocsFolderName    = "Documentos aplicación"
	GuionesFolderName = "Guiones de Subapartados"

	LotAnalysisFile    = "resultado_analisis_lotes.json"
	IndividualPlanFile = "prompts_individual.json"
)

func IndexFileName(lot string) string {
	if lot == "" || lot == models.GeneralLot {
		return "ultimo_indice.json"
	}
	return "ultimo_indice_lote" + util.LotFileSuffix(lot) + ".json"
}

func UnifiedPlanFileName(lot string) string {
	if lot == "" || lot == models.GeneralLot {
		return "plan_de_prompts_general.json"
	}
	return "plan_de_prompts_" + util.LotFileSuffix(lot) + ".json"
}

func CheckpointFileName(lot string) string {
	if lot == "" || lot == models.GeneralLot {
		return "estado_ensamblado.json"
	}
	return "estado_ensamblado_lote" + util.LotFileSuffix(lot) + ".json"
}

func GuionDocName(subapartado string) string {
	return "Guion_" + util.CleanFolderName(subapartado) + ".docx"
}

func BodyDocName(project, lot string) string {
	return fmt.Sprintf("Cuerpo_Memoria_%s_%s.docx", util.LotFileSuffix(project), lotLabel(lot))
}

func FinalDocName(project, lot string) string {
	return fmt.Sprintf("Version_Final_%s_%s.docx", util.LotFileSuffix(project), lotLabel(lot))
}

func lotLabel(lot string) string {
	if lot == "" || lot == models.GeneralLot {
		return "general"
	}
	return util.LotFileSuffix(lot)
}

// Layout resolves the well-known folders for a project/lot pair, creating
// them on first use.
type Layout struct {
	Store DocumentStore
}

func (l Layout) projectsRoot(ctx context.Context) (Entry, error) {
	root, err := l.Store.Root(ctx)
	if err != nil {
		return Entry{}, err
	}
	return l.Store.EnsureFolder(ctx, root.ID, RootFolderName)
}

func (l Layout) ProjectFolder(ctx context.Context, project string) (Entry, error) {
	base, err := l.projectsRoot(ctx)
	if err != nil {
		return Entry{}, err
	}
	return l.Store.EnsureFolder(ctx, base.ID, util.CleanFolderName(project))
}

func (l Layout) ListProjects(ctx context.Context) ([]Entry, error) {
	base, err := l.projectsRoot(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := l.Store.List(ctx, base.ID)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.IsFolder {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l Layout) PliegosFolder(ctx context.Context, project string) (Entry, error) {
	p, err := l.ProjectFolder(ctx, project)
	if err != nil {
		return Entry{}, err
	}
	return l.Store.EnsureFolder(ctx, p.ID, PliegosFolder)
}

// workFolder returns the lot folder for lot analyses, or the project folder
// itself for the general analysis.
func (l Layout) workFolder(ctx context.Context, project, lot string) (Entry, error) {
	p, err := l.ProjectFolder(ctx, project)
	if err != nil {
		return Entry{}, err
	}
	if lot == "" || lot == models.GeneralLot {
		return p, nil
	}
	return l.Store.EnsureFolder(ctx, p.ID, util.CleanFolderName(lot))
}

func (l Layout) DocsFolder(ctx context.Context, project, lot string) (Entry, error) {
	w, err := l.workFolder(ctx, project, lot)
	if err != nil {
		return Entry{}, err
	}
	return l.Store.EnsureFolder(ctx, w.ID, DocsFolderName)
}

func (l Layout) GuionesFolder(ctx context.Context, project, lot string) (Entry, error) {
	w, err := l.workFolder(ctx, project, lot)
	if err != nil {
		return Entry{}, err
	}
	return l.Store.EnsureFolder(ctx, w.ID, GuionesFolderName)
}

func (l Layout) SubapartadoFolder(ctx context.Context, project, lot, subapartado string) (Entry, error) {
	g, err := l.GuionesFolder(ctx, project, lot)
	if err != nil {
		return Entry{}, err
	}
	return l.Store.EnsureFolder(ctx, g.ID, util.CleanFolderName(subapartado))
}
