package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/schema-cache/internal/entity"
)

type fakeFingerprinter struct {
	signals *entity.PageSignals
	err     error
	urls    []string
}

func (f *fakeFingerprinter) Fingerprint(_ context.Context, url string) (*entity.PageSignals, error) {
	f.urls = append(f.urls, url)
	return f.signals, f.err
}

type fakeSubmitter struct {
	drift bool
	err   error
	got   []*entity.PageSignals
}

func (f *fakeSubmitter) CollectSignal(_ context.Context, _, _ string, signals *entity.PageSignals) (bool, error) {
	f.got = append(f.got, signals)
	return f.drift, f.err
}

func TestProbe_SubmitsFingerprint(t *testing.T) {
	fp := &fakeFingerprinter{signals: &entity.PageSignals{Title: "About", ContentHash: "1f"}}
	sub := &fakeSubmitter{drift: true}

	res, err := NewProber(fp, sub).Probe(context.Background(), testOrgID, "https://x.com/about/")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://x.com/about/"}, fp.urls)
	require.Len(t, sub.got, 1)
	assert.Equal(t, "1f", sub.got[0].ContentHash)
	assert.True(t, res.DriftDetected)
	assert.Equal(t, "https://x.com/about", res.PageURL)
}

func TestProbe_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewProber(&fakeFingerprinter{}, &fakeSubmitter{}).Probe(context.Background(), "", "https://x.com")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewProber(&fakeFingerprinter{err: boom}, &fakeSubmitter{}).Probe(context.Background(), testOrgID, "https://x.com")
	assert.ErrorIs(t, err, boom)

	sub := &fakeSubmitter{err: boom}
	_, err = NewProber(&fakeFingerprinter{signals: &entity.PageSignals{}}, sub).Probe(context.Background(), testOrgID, "https://x.com")
	assert.ErrorIs(t, err, boom)
}
