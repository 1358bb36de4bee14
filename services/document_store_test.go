package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/repository"
)

func pdfUpload(category models.DocumentCategory, name, body string) DocumentUpload {
	return DocumentUpload{
		Category: category,
		FileName: name,
		Size:     int64(len(body)),
		MimeType: "application/pdf",
		Body:     strings.NewReader(body),
	}
}

func TestUploadSameCategoryTwiceKeepsSecond(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, EngineOptions{})
	claim := f.submitted(t)

	first, err := f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryPostMortemReport, "pm-v1.pdf", "first"), sdm)
	require.NoError(t, err)
	second, err := f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryPostMortemReport, "pm-v2.pdf", "second!"), sdm)
	require.NoError(t, err)

	current, err := f.engine.ListDocuments(ctx, claim.ClaimID)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, second.DocumentID, current[0].DocumentID)
	assert.Equal(t, "pm-v2.pdf", current[0].FileName)
	assert.Equal(t, int64(7), current[0].FileSize)

	old, body, err := f.engine.OpenDocument(ctx, claim.ClaimID, first.DocumentID)
	require.NoError(t, err)
	defer body.Close()
	content, _ := io.ReadAll(body)
	assert.Equal(t, "first", string(content))
	require.NotNil(t, old.SupersededBy)
	assert.Equal(t, second.DocumentID, *old.SupersededBy)
}

func TestUploadCategoriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, EngineOptions{})
	claim := f.submitted(t)

	_, err := f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryFindingReport, "finding.pdf", "a"), sdm)
	require.NoError(t, err)
	_, err = f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryPostMortemReport, "pm.pdf", "b"), sdm)
	require.NoError(t, err)

	current, err := f.engine.ListDocuments(ctx, claim.ClaimID)
	require.NoError(t, err)
	assert.Len(t, current, 2)
}

func TestConcurrentUploadsLeaveOneCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, EngineOptions{})
	claim := f.submitted(t)

	const uploads = 8
	var wg sync.WaitGroup
	ids := make([]string, uploads)
	errs := make([]error, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := f.engine.UploadDocument(ctx, claim.ClaimID,
				pdfUpload(models.CategoryFindingReport, fmt.Sprintf("finding-%d.pdf", i), "report"), sdm)
			errs[i] = err
			if err == nil {
				ids[i] = doc.DocumentID
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	current, err := f.engine.ListDocuments(ctx, claim.ClaimID)
	require.NoError(t, err)
	require.Len(t, current, 1)

	superseded := 0
	for _, id := range ids {
		doc, err := f.store.Documents().Get(ctx, id)
		require.NoError(t, err)
		if doc.SupersededAt != nil {
			superseded++
		} else {
			assert.Equal(t, current[0].DocumentID, id)
		}
	}
	assert.Equal(t, uploads-1, superseded)
}

func TestUploadValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, EngineOptions{})
	claim := f.submitted(t)

	tests := []struct {
		name string
		up   DocumentUpload
	}{
		{"unknown category", pdfUpload("autopsy", "a.pdf", "x")},
		{"bad extension", pdfUpload(models.CategoryFindingReport, "a.exe", "x")},
		{"empty file", pdfUpload(models.CategoryFindingReport, "a.pdf", "")},
		{"too large", pdfUpload(models.CategoryFindingReport, "a.pdf", strings.Repeat("x", 2048))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.UploadDocument(ctx, claim.ClaimID, tt.up, sdm)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestUploadPermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, EngineOptions{})
	claim := f.submitted(t)

	_, err := f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryFindingReport, "a.pdf", "x"), oic)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.engine.UploadDocument(ctx, "missing", pdfUpload(models.CategoryFindingReport, "a.pdf", "x"), sdm)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.act(t, claim.ClaimID, sdm, models.ActionReject, "duplicate claim")
	_, err = f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryFindingReport, "a.pdf", "x"), sdm)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestUploadRechecksClaimInsideTransaction(t *testing.T) {
	ctx := context.Background()
	flt := &faults{}
	f := newFixture(t, faultyStore{repository.NewMemoryStore(), flt}, EngineOptions{})
	claim := f.submitted(t)

	flt.runAfterNextGet(func() {
		f.act(t, claim.ClaimID, sdm, models.ActionReject, "duplicate application")
	})
	_, err := f.engine.UploadDocument(ctx, claim.ClaimID, pdfUpload(models.CategoryFindingReport, "late.pdf", "x"), sdm)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	docs, err := f.engine.ListDocuments(ctx, claim.ClaimID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestOpenDocumentOfAnotherClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, EngineOptions{})
	a := f.submitted(t)
	b := f.submitted(t)

	doc, err := f.engine.UploadDocument(ctx, a.ClaimID, pdfUpload(models.CategoryFindingReport, "a.pdf", "x"), sdm)
	require.NoError(t, err)

	_, _, err = f.engine.OpenDocument(ctx, b.ClaimID, doc.DocumentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
