package server

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"yatube/events"
	"yatube/monitoring"
	"yatube/pagination"
	"yatube/storage/models"
	"yatube/storage/queries"
)

// followIndex lists posts from authors the viewer follows, most-recent
// first.
func (s *Server) followIndex(w http.ResponseWriter, r *http.Request, user models.User) {
	count, err := queries.CountFeedPosts(s.db, user.ID)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not count posts")
		return
	}
	window := pagination.Paginate(count, s.pageSize, pageNumber(r))
	posts, err := queries.GetFeedPosts(s.db, user.ID, window.Offset, window.Limit)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not list posts")
		return
	}

	writeContext(w, map[string]any{
		"posts": posts,
		"page":  window,
	})
}

func (s *Server) loadAuthor(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	author, err := queries.GetUser(s.db, r.PathValue("username"))
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			sendError(w, http.StatusNotFound, "user not found")
		} else {
			sendError(w, http.StatusInternalServerError, "could not load user")
		}
		return models.User{}, false
	}
	return author, true
}

// profileFollow creates the follow edge. Following twice is a no-op
// and following yourself is silently refused.
func (s *Server) profileFollow(w http.ResponseWriter, r *http.Request, user models.User) {
	author, ok := s.loadAuthor(w, r)
	if !ok {
		return
	}

	if user.ID != author.ID {
		if err := queries.CreateFollow(s.db, user.ID, author.ID); err != nil {
			log.Errorf("Error following '%s': %v", author.Username, err)
			sendError(w, http.StatusInternalServerError, "could not follow")
			return
		}
		monitoring.FollowChanges.WithLabelValues("follow").Inc()
		s.publish(r.Context(), events.Event{
			Kind:    events.FollowCreated,
			Actor:   user.Username,
			Subject: author.Username,
		})
	}

	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}

func (s *Server) profileUnfollow(w http.ResponseWriter, r *http.Request, user models.User) {
	author, ok := s.loadAuthor(w, r)
	if !ok {
		return
	}

	if err := queries.DeleteFollow(s.db, user.ID, author.ID); err != nil {
		log.Errorf("Error unfollowing '%s': %v", author.Username, err)
		sendError(w, http.StatusInternalServerError, "could not unfollow")
		return
	}
	monitoring.FollowChanges.WithLabelValues("unfollow").Inc()
	s.publish(r.Context(), events.Event{
		Kind:    events.FollowDeleted,
		Actor:   user.Username,
		Subject: author.Username,
	})

	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}
