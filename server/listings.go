package server

import (
	"errors"
	"net/http"

	"yatube/monitoring"
	"yatube/pagination"
	"yatube/storage/cache"
	"yatube/storage/queries"
	"yatube/utils"
)

// index serves the paginated post listing. Responses are cached per
// URL for the configured window; mutations do not invalidate the
// cache, trading short staleness for read throughput.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	cacheKey := cache.IndexPagePrefix + ":" + r.URL.RequestURI()
	if body, ok := s.pagesCache.Get(cacheKey); ok {
		monitoring.IndexCacheRequests.WithLabelValues("hit").Inc()
		writeBody(w, body)
		return
	}
	monitoring.IndexCacheRequests.WithLabelValues("miss").Inc()

	count, err := queries.CountPosts(s.db)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not count posts")
		return
	}
	window := pagination.Paginate(count, s.pageSize, pageNumber(r))
	posts, err := queries.GetPosts(s.db, window.Offset, window.Limit)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not list posts")
		return
	}

	body := utils.ToJson(map[string]any{
		"title": "Latest updates on the site",
		"posts": posts,
		"page":  window,
	})
	s.pagesCache.Set(cacheKey, body, s.indexTTL)
	writeBody(w, body)
}

func (s *Server) groupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := queries.GetGroup(s.db, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			sendError(w, http.StatusNotFound, "group not found")
		} else {
			sendError(w, http.StatusInternalServerError, "could not load group")
		}
		return
	}

	count, err := queries.CountGroupPosts(s.db, group.ID)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not count posts")
		return
	}
	window := pagination.Paginate(count, s.pageSize, pageNumber(r))
	posts, err := queries.GetGroupPosts(s.db, group.ID, window.Offset, window.Limit)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not list posts")
		return
	}

	writeContext(w, map[string]any{
		"title": "Group posts",
		"group": group,
		"posts": posts,
		"page":  window,
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	author, err := queries.GetUser(s.db, r.PathValue("username"))
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			sendError(w, http.StatusNotFound, "user not found")
		} else {
			sendError(w, http.StatusInternalServerError, "could not load user")
		}
		return
	}

	count, err := s.authorPostsCount(author.ID)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not count posts")
		return
	}
	window := pagination.Paginate(count, s.pageSize, pageNumber(r))
	posts, err := queries.GetAuthorPosts(s.db, author.ID, window.Offset, window.Limit)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not list posts")
		return
	}

	// Anonymous viewers are never "following".
	following := false
	if viewer, ok := s.currentUser(r); ok {
		following, err = queries.FollowExists(s.db, viewer.ID, author.ID)
		if err != nil {
			sendError(w, http.StatusInternalServerError, "could not load follow state")
			return
		}
	}

	writeContext(w, map[string]any{
		"author":      author,
		"posts":       posts,
		"page":        window,
		"user_number": count,
		"following":   following,
	})
}
