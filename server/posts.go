package server

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"yatube/events"
	"yatube/monitoring"
	"yatube/storage/models"
	"yatube/storage/queries"
)

func (s *Server) loadPost(w http.ResponseWriter, r *http.Request) (models.Post, bool) {
	id, ok := pathID(r)
	if !ok {
		sendError(w, http.StatusNotFound, "post not found")
		return models.Post{}, false
	}
	post, err := queries.GetPost(s.db, id)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			sendError(w, http.StatusNotFound, "post not found")
		} else {
			sendError(w, http.StatusInternalServerError, "could not load post")
		}
		return models.Post{}, false
	}
	return post, true
}

func (s *Server) postDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}

	count, err := s.authorPostsCount(post.AuthorID)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not count posts")
		return
	}
	comments, err := queries.GetPostComments(s.db, post.ID)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not load comments")
		return
	}

	writeContext(w, map[string]any{
		"post":        post,
		"user_number": count,
		"comments":    comments,
		"form":        map[string]string{"text": ""},
	})
}

func (s *Server) postCreateForm(w http.ResponseWriter, r *http.Request, user models.User) {
	writeContext(w, map[string]any{
		"form":     map[string]string{"text": "", "group": ""},
		"username": user.Username,
	})
}

func (s *Server) postCreate(w http.ResponseWriter, r *http.Request, user models.User) {
	form, err := parsePostForm(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid form submission")
		return
	}
	if formErrors := form.Validate(s.db); len(formErrors) > 0 {
		writeContext(w, map[string]any{
			"form":   form.Context(),
			"errors": formErrors,
		})
		return
	}

	post := models.Post{
		Text:     form.Text,
		AuthorID: user.ID,
		GroupID:  form.GroupID,
	}
	if form.Image != nil {
		key, err := s.mediaStore.Save(
			r.Context(), form.Image.Filename, form.Image.ContentType, form.Image.Data,
		)
		if err != nil {
			log.Errorf("Error storing image: %v", err)
			sendError(w, http.StatusInternalServerError, "could not store image")
			return
		}
		post.Image = key
	}
	if err := queries.CreatePost(s.db, &post); err != nil {
		log.Errorf("Error creating post: %v", err)
		sendError(w, http.StatusInternalServerError, "could not create post")
		return
	}

	if s.usersCache != nil {
		s.usersCache.AddPost(user.ID)
	}
	monitoring.PostsCreated.Inc()
	s.publish(r.Context(), events.Event{
		Kind:   events.PostCreated,
		Actor:  user.Username,
		PostID: post.ID,
	})

	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

func (s *Server) postEditForm(w http.ResponseWriter, r *http.Request, user models.User) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	if post.AuthorID != user.ID {
		http.Redirect(w, r, post.DetailPath(), http.StatusFound)
		return
	}

	group := ""
	if post.GroupID != nil {
		group = uintString(*post.GroupID)
	}
	writeContext(w, map[string]any{
		"form":    map[string]string{"text": post.Text, "group": group},
		"post_id": post.ID,
		"is_edit": true,
	})
}

// postEdit persists changes to an existing post. Only the author may
// edit; anyone else is bounced back to the detail page.
func (s *Server) postEdit(w http.ResponseWriter, r *http.Request, user models.User) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	if post.AuthorID != user.ID {
		http.Redirect(w, r, post.DetailPath(), http.StatusFound)
		return
	}

	form, err := parsePostForm(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid form submission")
		return
	}
	if formErrors := form.Validate(s.db); len(formErrors) > 0 {
		writeContext(w, map[string]any{
			"form":    form.Context(),
			"errors":  formErrors,
			"post_id": post.ID,
			"is_edit": true,
		})
		return
	}

	post.Text = form.Text
	post.GroupID = form.GroupID
	if form.Image != nil {
		key, err := s.mediaStore.Save(
			r.Context(), form.Image.Filename, form.Image.ContentType, form.Image.Data,
		)
		if err != nil {
			log.Errorf("Error storing image: %v", err)
			sendError(w, http.StatusInternalServerError, "could not store image")
			return
		}
		if post.Image != "" {
			if err := s.mediaStore.Delete(r.Context(), post.Image); err != nil {
				log.Errorf("Error deleting image '%s': %v", post.Image, err)
			}
		}
		post.Image = key
	}
	if err := queries.UpdatePost(s.db, &post); err != nil {
		log.Errorf("Error updating post %d: %v", post.ID, err)
		sendError(w, http.StatusInternalServerError, "could not update post")
		return
	}

	s.publish(r.Context(), events.Event{
		Kind:   events.PostEdited,
		Actor:  user.Username,
		PostID: post.ID,
	})
	http.Redirect(w, r, post.DetailPath(), http.StatusFound)
}
