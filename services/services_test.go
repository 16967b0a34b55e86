package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/docqa/answer"
	"github.com/cppla/docqa/extract"
	"github.com/cppla/docqa/models"
	"github.com/cppla/docqa/storage"
	"github.com/cppla/docqa/store"
	"github.com/cppla/docqa/testutil"
	"github.com/cppla/docqa/utils"
)

type fakeAnswerer struct {
	mu      sync.Mutex
	err     error
	text    string
	tokens  *int
	block   bool
	context string
}

func (f *fakeAnswerer) Answer(ctx context.Context, docContext, question string) (*answer.Answer, error) {
	f.mu.Lock()
	f.context = docContext
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, &answer.ProviderError{Provider: "fake", Class: answer.ErrTimeout, Err: ctx.Err()}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &answer.Answer{Text: f.text + question, TokensUsed: f.tokens}, nil
}

type failingDocs struct {
	DocumentRepository
}

func (failingDocs) Create(context.Context, *models.Document) error {
	return errors.New("disk full")
}

type fixture struct {
	store   *store.Store
	objects *testutil.MemoryStore
	auth    *AuthService
	docs    *DocumentService
	qa      *QAService
	fake    *fakeAnswerer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(testutil.NewDB(t, store.Models()...))
	objects := testutil.NewMemoryStore()
	fake := &fakeAnswerer{text: "A: "}
	return &fixture{
		store:   st,
		objects: objects,
		auth:    NewAuthService(st.Users, utils.NewTokenIssuer("test-secret", 30*time.Minute)),
		docs:    NewDocumentService(st.Documents, objects, extract.New(), 1024),
		qa:      NewQAService(st.Documents, st.History, fake, 5, time.Second),
		fake:    fake,
	}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	tok, err := f.auth.Register(context.Background(), email, "secret123")
	require.NoError(t, err)
	u, err := f.auth.ValidateToken(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	return u
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tok, err := f.auth.Register(ctx, "  Alice@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	_, err = f.auth.Register(ctx, "alice@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	tok, err = f.auth.Authenticate(ctx, "ALICE@example.com", "secret123")
	require.NoError(t, err)
	u, err := f.auth.ValidateToken(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = f.auth.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "alice@example.com")

	_, err := f.auth.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed correctly but for a user that does not exist.
	ghost, err := utils.NewTokenIssuer("test-secret", time.Minute).GenerateToken(4242, "ghost@example.com")
	require.NoError(t, err)
	_, err = f.auth.ValidateToken(ctx, ghost)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := utils.NewTokenIssuer("other-secret", time.Minute).GenerateToken(1, "alice@example.com")
	require.NoError(t, err)
	_, err = f.auth.ValidateToken(ctx, other)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUploadText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice@example.com")

	doc, err := f.docs.Upload(ctx, u.ID, "../notes/sample.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "sample.txt", doc.Filename)
	assert.Equal(t, extract.MimeText, doc.MimeType)
	assert.Equal(t, int64(11), doc.FileSize)
	assert.Equal(t, "hello world", doc.ExtractedText)
	assert.True(t, strings.HasSuffix(doc.StoragePath, "_sample.txt"))
	assert.Equal(t, 1, f.objects.Len())
}

func TestUploadLongFilename(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice@example.com")

	doc, err := f.docs.Upload(context.Background(), u.ID, strings.Repeat("a", 240)+".txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Len(t, doc.Filename, storage.MaxNameBytes)
	assert.True(t, strings.HasSuffix(doc.Filename, ".txt"))
	assert.True(t, strings.HasSuffix(doc.StoragePath, "_"+doc.Filename))
}

func TestUploadRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice@example.com")

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too large", []byte(strings.Repeat("a", 1025)), ErrFileTooLarge},
		// Size wins over type.
		{"too large binary", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 2000)...), ErrFileTooLarge},
		{"empty", nil, ErrEmptyFile},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ErrUnsupportedType},
		{"broken pdf", []byte("%PDF-1.4\nnot really"), ErrExtractionFailed},
		{"encrypted pdf", testutil.EncryptedPDF(), ErrEncryptedPDF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.docs.Upload(ctx, u.ID, "x", tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.objects.Len())
}

func TestUploadRemovesObjectWhenRowFails(t *testing.T) {
	f := newFixture(t)
	svc := NewDocumentService(failingDocs{}, f.objects, extract.New(), 1024)

	_, err := svc.Upload(context.Background(), 1, "a.txt", []byte("hello"))
	require.Error(t, err)
	assert.Equal(t, KindInternal, AsError(err).Kind)
	assert.Equal(t, 0, f.objects.Len())
	assert.Len(t, f.objects.Deleted, 1)
}

func TestUploadStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.objects.FailSave = true
	u := f.user(t, "alice@example.com")

	_, err := f.docs.Upload(context.Background(), u.ID, "a.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrInternal)

	assert.Equal(t, 0, f.objects.Len())
}

func TestAskRecordsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tokens := 12
	f.fake.tokens = &tokens
	u := f.user(t, "alice@example.com")
	doc, err := f.docs.Upload(ctx, u.ID, "sample.txt", []byte("hello world"))
	require.NoError(t, err)

	got, err := f.qa.Ask(ctx, u.ID, doc.ID, "what does it say?")
	require.NoError(t, err)
	assert.Equal(t, "A: what does it say?", got)
	// contextChars is 5 in the fixture.
	assert.Equal(t, "hello", f.fake.context)

	items, err := f.qa.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "what does it say?", items[0].Question)
	assert.Equal(t, doc.ID, items[0].DocumentID)
	require.NotNil(t, items[0].TokensUsed)
	assert.Equal(t, 12, *items[0].TokensUsed)
	assert.NotNil(t, items[0].LatencyMS)
}

func TestAskOtherUsersDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	doc, err := f.docs.Upload(ctx, alice.ID, "a.txt", []byte("alice's secret"))
	require.NoError(t, err)

	_, err = f.qa.Ask(ctx, bob.ID, doc.ID, "what?")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Empty(t, f.fake.context)

	_, err = f.qa.Ask(ctx, alice.ID, doc.ID+99, "what?")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAskUpstreamFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"quota", &answer.ProviderError{Provider: "fake", Class: answer.ErrQuota}, KindUpstreamQuota},
		{"timeout", &answer.ProviderError{Provider: "fake", Class: answer.ErrTimeout}, KindUpstreamTimeout},
		{"malformed", &answer.ProviderError{Provider: "fake", Class: answer.ErrMalformed}, KindUpstreamBadGateway},
		{"unavailable", errors.New("connection refused"), KindUpstreamBadGateway},
		{"not configured", &answer.ProviderError{Provider: "gemini", Class: answer.ErrNotConfigured, Err: errors.New(answer.GeminiKeyMissing)}, KindNotConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.fake.err = tt.err
			u := f.user(t, "alice@example.com")
			doc, err := f.docs.Upload(ctx, u.ID, "a.txt", []byte("hello"))
			require.NoError(t, err)

			_, err = f.qa.Ask(ctx, u.ID, doc.ID, "q")
			require.Error(t, err)
			assert.Equal(t, tt.kind, AsError(err).Kind)

			items, err := f.qa.History(ctx, u.ID)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestAskNotConfiguredDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.qa.answerer = &answer.NotConfigured{Provider: "gemini", Detail: answer.GeminiKeyMissing}
	u := f.user(t, "alice@example.com")
	doc, err := f.docs.Upload(ctx, u.ID, "a.txt", []byte("hello"))
	require.NoError(t, err)

	_, err = f.qa.Ask(ctx, u.ID, doc.ID, "q")
	assert.Equal(t, answer.GeminiKeyMissing, AsError(err).Detail)
}

func TestAskTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fake.block = true
	f.qa.timeout = 20 * time.Millisecond
	u := f.user(t, "alice@example.com")
	doc, err := f.docs.Upload(ctx, u.ID, "a.txt", []byte("hello"))
	require.NoError(t, err)

	_, err = f.qa.Ask(ctx, u.ID, doc.ID, "q")
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestErrorIsMatchesSentinelWithCause(t *testing.T) {
	err := ErrFileTooLarge.With(errors.New("12MB"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.NotErrorIs(t, err, ErrEmptyFile)
	assert.Equal(t, KindInternal, AsError(errors.New("x")).Kind)
}
