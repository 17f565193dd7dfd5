package server

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"yatube/events"
	"yatube/monitoring"
	"yatube/storage/models"
	"yatube/storage/queries"
)

// addComment attaches a comment to a post. Invalid submissions create
// nothing; either way the caller lands back on the detail page.
func (s *Server) addComment(w http.ResponseWriter, r *http.Request, user models.User) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}

	form := parseCommentForm(r)
	if len(form.Validate()) == 0 {
		comment := models.Comment{
			PostID:   post.ID,
			AuthorID: user.ID,
			Text:     form.Text,
		}
		if err := queries.CreateComment(s.db, &comment); err != nil {
			log.Errorf("Error creating comment on post %d: %v", post.ID, err)
			sendError(w, http.StatusInternalServerError, "could not create comment")
			return
		}
		monitoring.CommentsCreated.Inc()
		s.publish(r.Context(), events.Event{
			Kind:   events.CommentCreated,
			Actor:  user.Username,
			PostID: post.ID,
		})
	}

	http.Redirect(w, r, post.DetailPath(), http.StatusFound)
}
