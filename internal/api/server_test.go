package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"memoflow/internal/models"
	"memoflow/internal/store"

	"github.com/stretchr/testify/require"
)

func TestHandleLotsGetServesCachedAnalysis(t *testing.T) {
	fs, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	s := &Server{layout: store.Layout{Store: fs}}
	ctx := context.Background()

	rec := httptest.NewRecorder()
	s.handleLots(rec, httptest.NewRequest(http.MethodGet, "/projects/Alumbrado/lots", nil), "Alumbrado")
	require.Equal(t, http.StatusNotFound, rec.Code)

	folder, err := s.layout.ProjectFolder(ctx, "Alumbrado")
	require.NoError(t, err)
	analysis := models.LotAnalysis{TieneLotes: true, Lotes: []string{"Lote 1", "Lote 2"}}
	data, err := json.Marshal(analysis)
	require.NoError(t, err)
	_, err = store.ReplaceFile(ctx, fs, folder.ID, store.LotAnalysisFile, data)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	s.handleLots(rec, httptest.NewRequest(http.MethodGet, "/projects/Alumbrado/lots", nil), "Alumbrado")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.LotAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, analysis, got)
}
