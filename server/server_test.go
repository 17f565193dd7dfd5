package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"yatube/events"
	"yatube/media"
	"yatube/pagination"
	"yatube/storage/cache"
	"yatube/storage/db"
	"yatube/storage/models"
	"yatube/storage/queries"
)

func newTestServer(t *testing.T) (*Server, *gorm.DB, *cache.MemoryPages) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	// :memory: lives per connection
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	pages := cache.NewMemoryPages()
	s := NewServer(
		database,
		pages,
		nil,
		media.NewMemoryStore(),
		events.Discard{},
		Config{
			PageSize:      10,
			IndexCacheTTL: 20 * time.Second,
			JWTSecret:     []byte("test-secret"),
		},
	)
	return s, database, pages
}

func createUser(t *testing.T, database *gorm.DB, username string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := models.User{Username: username, PasswordHash: string(hash)}
	if err := queries.CreateUser(database, &user); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

func createPost(t *testing.T, database *gorm.DB, author models.User, text string, groupID *uint) models.Post {
	t.Helper()
	post := models.Post{Text: text, AuthorID: author.ID, GroupID: groupID}
	if err := queries.CreatePost(database, &post); err != nil {
		t.Fatalf("creating post: %v", err)
	}
	return post
}

func sessionFor(t *testing.T, s *Server, username string) *http.Cookie {
	t.Helper()
	token, err := s.issueToken(username)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func doGet(handler http.Handler, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", target, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func doPost(handler http.Handler, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

type listingResponse struct {
	Posts []models.Post     `json:"posts"`
	Page  pagination.Window `json:"page"`
}

func decodeListing(t *testing.T, w *httptest.ResponseRecorder) listingResponse {
	t.Helper()
	var resp listingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding listing: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestIndexPagination(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "poet")

	for i := 0; i < 15; i++ {
		createPost(t, database, author, fmt.Sprintf("post %d", i), nil)
	}

	page1 := decodeListing(t, doGet(handler, "/", nil))
	if len(page1.Posts) != 10 {
		t.Errorf("page 1: got %d posts, want 10", len(page1.Posts))
	}
	if !page1.Page.HasNext || page1.Page.NumPages != 2 {
		t.Errorf("page 1 metadata wrong: %+v", page1.Page)
	}

	page2 := decodeListing(t, doGet(handler, "/?page=2", nil))
	if len(page2.Posts) != 5 {
		t.Errorf("page 2: got %d posts, want 5", len(page2.Posts))
	}
	if page2.Page.HasNext || !page2.Page.HasPrevious {
		t.Errorf("page 2 metadata wrong: %+v", page2.Page)
	}

	clamped := decodeListing(t, doGet(handler, "/?page=99", nil))
	if clamped.Page.Number != 2 {
		t.Errorf("out-of-range page resolved to %d, want 2", clamped.Page.Number)
	}
}

func TestIndexCacheStaleness(t *testing.T) {
	s, database, pages := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "poet")
	cookie := sessionFor(t, s, "poet")

	createPost(t, database, author, "old post", nil)
	before := doGet(handler, "/", nil).Body.String()

	w := doPost(handler, "/create/", url.Values{"text": {"brand new post"}}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("creating post: got status %d", w.Code)
	}

	// Still the cached body: mutations do not invalidate the cache.
	stale := doGet(handler, "/", nil).Body.String()
	if stale != before {
		t.Error("index response changed before cache invalidation")
	}
	if strings.Contains(stale, "brand new post") {
		t.Error("cached index already shows the new post")
	}

	pages.InvalidatePrefix(cache.IndexPagePrefix)
	fresh := doGet(handler, "/", nil).Body.String()
	if !strings.Contains(fresh, "brand new post") {
		t.Error("index response missing new post after invalidation")
	}
}

func TestGroupPosts(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "poet")

	cats := models.Group{Title: "Cats", Slug: "cats"}
	dogs := models.Group{Title: "Dogs", Slug: "dogs"}
	for _, group := range []*models.Group{&cats, &dogs} {
		if err := queries.CreateGroup(database, group); err != nil {
			t.Fatalf("creating group: %v", err)
		}
	}
	createPost(t, database, author, "meow", &cats.ID)
	createPost(t, database, author, "woof", &dogs.ID)
	createPost(t, database, author, "ungrouped", nil)

	resp := decodeListing(t, doGet(handler, "/group/cats/", nil))
	if len(resp.Posts) != 1 {
		t.Fatalf("got %d posts in cats, want 1", len(resp.Posts))
	}
	for _, post := range resp.Posts {
		if post.Group == nil || post.Group.Slug != "cats" {
			t.Errorf("post %d not in requested group: %+v", post.ID, post.Group)
		}
	}

	if w := doGet(handler, "/group/birds/", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown group slug: got status %d, want 404", w.Code)
	}
}

func TestProfile(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "author")
	createUser(t, database, "viewer")
	viewerCookie := sessionFor(t, s, "viewer")

	createPost(t, database, author, "first", nil)
	createPost(t, database, author, "second", nil)

	var resp struct {
		Posts      []models.Post `json:"posts"`
		UserNumber int64         `json:"user_number"`
		Following  bool          `json:"following"`
	}
	w := doGet(handler, "/profile/author/", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if resp.UserNumber != 2 || len(resp.Posts) != 2 {
		t.Errorf("got %d posts / count %d, want 2 / 2", len(resp.Posts), resp.UserNumber)
	}
	if resp.Following {
		t.Error("anonymous viewer reported as following")
	}

	if w := doGet(handler, "/profile/author/follow/", viewerCookie); w.Code != http.StatusFound {
		t.Fatalf("following: got status %d", w.Code)
	}
	w = doGet(handler, "/profile/author/", viewerCookie)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if !resp.Following {
		t.Error("follower not reported as following")
	}

	if w := doGet(handler, "/profile/nobody/", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown username: got status %d, want 404", w.Code)
	}
}

func TestPostDetail(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "poet")
	post := createPost(t, database, author, "hello world", nil)
	createPost(t, database, author, "another", nil)

	var resp struct {
		Post       models.Post      `json:"post"`
		UserNumber int64            `json:"user_number"`
		Comments   []models.Comment `json:"comments"`
	}
	w := doGet(handler, post.DetailPath(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding detail: %v", err)
	}
	if resp.Post.ID != post.ID || resp.Post.Text != "hello world" {
		t.Errorf("wrong post in detail: %+v", resp.Post)
	}
	if resp.UserNumber != 2 {
		t.Errorf("author post count = %d, want 2", resp.UserNumber)
	}
	if len(resp.Comments) != 0 {
		t.Errorf("expected no comments, got %d", len(resp.Comments))
	}

	if w := doGet(handler, "/posts/99999/", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown post id: got status %d, want 404", w.Code)
	}
}

func TestPostCreate(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	createUser(t, database, "poet")
	cookie := sessionFor(t, s, "poet")

	w := doPost(handler, "/create/", url.Values{"text": {"my first post"}}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}
	if location := w.Header().Get("Location"); location != "/profile/poet/" {
		t.Errorf("redirected to %q, want /profile/poet/", location)
	}

	var post models.Post
	if err := database.Preload("Author").First(&post).Error; err != nil {
		t.Fatalf("post not persisted: %v", err)
	}
	if post.Author.Username != "poet" || post.Text != "my first post" {
		t.Errorf("persisted post wrong: %+v", post)
	}
}

func TestPostCreateValidation(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	createUser(t, database, "poet")
	cookie := sessionFor(t, s, "poet")

	w := doPost(handler, "/create/", url.Values{"text": {"   "}}, cookie)
	if w.Code != http.StatusOK {
		t.Errorf("validation failure: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"errors"`) {
		t.Errorf("expected field errors in body: %s", w.Body.String())
	}

	var count int64
	database.Model(&models.Post{}).Count(&count)
	if count != 0 {
		t.Errorf("invalid submission persisted %d posts", count)
	}
}

func TestPostCreateUnauthenticated(t *testing.T) {
	s, _, _ := newTestServer(t)
	handler := s.Handler()

	w := doGet(handler, "/create/", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}
	location, err := url.Parse(w.Header().Get("Location"))
	if err != nil || location.Path != "/auth/login/" {
		t.Fatalf("redirected to %q, want login", w.Header().Get("Location"))
	}
	if next := location.Query().Get("next"); next != "/create/" {
		t.Errorf("next = %q, want /create/", next)
	}
}

func TestPostCreateWithImage(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	createUser(t, database, "poet")
	cookie := sessionFor(t, s, "poet")

	// Minimal PNG header so content sniffing sees image/png.
	pngData := append(
		[]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
		bytes.Repeat([]byte{0}, 64)...,
	)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("text", "post with picture"); err != nil {
		t.Fatal(err)
	}
	part, err := writer.CreateFormFile("image", "cat.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(pngData); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	r := httptest.NewRequest("POST", "/create/", &body)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302 (%s)", w.Code, w.Body.String())
	}

	var post models.Post
	if err := database.First(&post).Error; err != nil {
		t.Fatalf("post not persisted: %v", err)
	}
	if !strings.HasPrefix(post.Image, media.ObjectPrefix) {
		t.Errorf("image key %q not under %q", post.Image, media.ObjectPrefix)
	}
	if !strings.HasSuffix(post.Image, ".png") {
		t.Errorf("image key %q lost its extension", post.Image)
	}
}

func TestPostEditAuthorOnly(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "author")
	createUser(t, database, "intruder")
	post := createPost(t, database, author, "original text", nil)

	w := doPost(
		handler,
		fmt.Sprintf("/posts/%d/edit/", post.ID),
		url.Values{"text": {"hijacked"}},
		sessionFor(t, s, "intruder"),
	)
	if w.Code != http.StatusFound {
		t.Fatalf("non-author edit: got status %d, want 302", w.Code)
	}
	if location := w.Header().Get("Location"); location != post.DetailPath() {
		t.Errorf("non-author redirected to %q, want %q", location, post.DetailPath())
	}
	var unchanged models.Post
	database.First(&unchanged, post.ID)
	if unchanged.Text != "original text" {
		t.Errorf("non-author edit persisted: %q", unchanged.Text)
	}

	w = doPost(
		handler,
		fmt.Sprintf("/posts/%d/edit/", post.ID),
		url.Values{"text": {"revised text"}},
		sessionFor(t, s, "author"),
	)
	if w.Code != http.StatusFound {
		t.Fatalf("author edit: got status %d, want 302", w.Code)
	}
	var revised models.Post
	database.First(&revised, post.ID)
	if revised.Text != "revised text" {
		t.Errorf("author edit not persisted: %q", revised.Text)
	}
}

func TestAddComment(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "author")
	createUser(t, database, "reader")
	post := createPost(t, database, author, "discuss", nil)

	w := doPost(
		handler,
		fmt.Sprintf("/posts/%d/comment/", post.ID),
		url.Values{"text": {"great post"}},
		sessionFor(t, s, "reader"),
	)
	if w.Code != http.StatusFound || w.Header().Get("Location") != post.DetailPath() {
		t.Fatalf("got status %d location %q", w.Code, w.Header().Get("Location"))
	}

	comments, err := queries.GetPostComments(database, post.ID)
	if err != nil {
		t.Fatalf("loading comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Text != "great post" || comments[0].Author.Username != "reader" {
		t.Errorf("comment not persisted correctly: %+v", comments)
	}

	// Empty text creates nothing but still redirects to the detail page.
	w = doPost(
		handler,
		fmt.Sprintf("/posts/%d/comment/", post.ID),
		url.Values{"text": {""}},
		sessionFor(t, s, "reader"),
	)
	if w.Code != http.StatusFound {
		t.Errorf("invalid comment: got status %d, want 302", w.Code)
	}
	count, _ := queries.CountComments(database)
	if count != 1 {
		t.Errorf("invalid comment persisted, count = %d", count)
	}
}

func TestAddCommentUnauthenticated(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	author := createUser(t, database, "author")
	post := createPost(t, database, author, "discuss", nil)

	target := fmt.Sprintf("/posts/%d/comment/", post.ID)
	w := doPost(handler, target, url.Values{"text": {"anonymous"}}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}
	location, err := url.Parse(w.Header().Get("Location"))
	if err != nil || location.Path != "/auth/login/" {
		t.Fatalf("redirected to %q, want login", w.Header().Get("Location"))
	}
	if next := location.Query().Get("next"); next != target {
		t.Errorf("next = %q, want %q", next, target)
	}

	count, _ := queries.CountComments(database)
	if count != 0 {
		t.Errorf("unauthenticated comment persisted, count = %d", count)
	}
}

func TestFollowLifecycle(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	createUser(t, database, "author")
	createUser(t, database, "fan")
	fanCookie := sessionFor(t, s, "fan")

	countFollows := func() int64 {
		var count int64
		database.Model(&models.Follow{}).Count(&count)
		return count
	}

	// Following twice yields exactly one edge.
	for i := 0; i < 2; i++ {
		w := doGet(handler, "/profile/author/follow/", fanCookie)
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/profile/author/" {
			t.Fatalf("follow %d: status %d location %q", i+1, w.Code, w.Header().Get("Location"))
		}
	}
	if got := countFollows(); got != 1 {
		t.Errorf("after double follow: %d rows, want 1", got)
	}

	// Self-follow is silently refused.
	w := doGet(handler, "/profile/fan/follow/", fanCookie)
	if w.Code != http.StatusFound {
		t.Fatalf("self-follow: got status %d", w.Code)
	}
	if got := countFollows(); got != 1 {
		t.Errorf("self-follow created an edge: %d rows", got)
	}

	w = doGet(handler, "/profile/author/unfollow/", fanCookie)
	if w.Code != http.StatusFound {
		t.Fatalf("unfollow: got status %d", w.Code)
	}
	if got := countFollows(); got != 0 {
		t.Errorf("after unfollow: %d rows, want 0", got)
	}

	// Unfollowing an absent edge is not an error.
	w = doGet(handler, "/profile/author/unfollow/", fanCookie)
	if w.Code != http.StatusFound {
		t.Errorf("unfollow absent: got status %d", w.Code)
	}

	if w := doGet(handler, "/profile/ghost/follow/", fanCookie); w.Code != http.StatusNotFound {
		t.Errorf("follow unknown user: got status %d, want 404", w.Code)
	}
}

func TestFollowIndex(t *testing.T) {
	s, database, _ := newTestServer(t)
	handler := s.Handler()
	followed := createUser(t, database, "followed")
	ignored := createUser(t, database, "ignored")
	fan := createUser(t, database, "fan")

	createPost(t, database, followed, "from followed", nil)
	createPost(t, database, ignored, "from ignored", nil)
	if err := queries.CreateFollow(database, fan.ID, followed.ID); err != nil {
		t.Fatalf("creating follow: %v", err)
	}

	resp := decodeListing(t, doGet(handler, "/follow/", sessionFor(t, s, "fan")))
	if len(resp.Posts) != 1 || resp.Posts[0].Text != "from followed" {
		t.Errorf("feed contents wrong: %+v", resp.Posts)
	}

	if w := doGet(handler, "/follow/", nil); w.Code != http.StatusFound {
		t.Errorf("anonymous feed: got status %d, want redirect", w.Code)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	s, _, _ := newTestServer(t)
	handler := s.Handler()

	if w := doGet(handler, "/unexisting_page/", nil); w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", w.Code)
	}
}

func TestSignupAndLogin(t *testing.T) {
	s, _, _ := newTestServer(t)
	handler := s.Handler()

	w := doPost(handler, "/auth/signup/", url.Values{
		"username": {"newcomer"},
		"password": {"password123"},
	}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("signup: got status %d (%s)", w.Code, w.Body.String())
	}

	w = doPost(handler, "/auth/login/", url.Values{
		"username": {"newcomer"},
		"password": {"password123"},
		"next":     {"/create/"},
	}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/create/" {
		t.Fatalf("login: status %d location %q", w.Code, w.Header().Get("Location"))
	}

	var session *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == sessionCookie {
			session = cookie
		}
	}
	if session == nil {
		t.Fatal("login did not set a session cookie")
	}
	if w := doGet(handler, "/create/", session); w.Code != http.StatusOK {
		t.Errorf("authenticated create form: got status %d", w.Code)
	}

	// Wrong password re-renders the form with errors.
	w = doPost(handler, "/auth/login/", url.Values{
		"username": {"newcomer"},
		"password": {"wrong"},
	}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"errors"`) {
		t.Errorf("bad login: status %d body %s", w.Code, w.Body.String())
	}
}
