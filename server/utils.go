package server

import (
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"yatube/storage/queries"
	"yatube/utils"
)

func sendError(w http.ResponseWriter, errorCode int, message string) {
	log.Info(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorCode)
	resp := map[string]string{
		"error": message,
	}
	w.Write(utils.ToJson(resp))
}

func writeContext(w http.ResponseWriter, context any) {
	writeBody(w, utils.ToJson(context))
}

func writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func pageNumber(r *http.Request) int {
	return utils.IntFromString(r.URL.Query().Get("page"), 1)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// authorPostsCount prefers the warm redis counter and falls back to a
// COUNT query, priming the cache on the way out.
func (s *Server) authorPostsCount(authorID uint) (int64, error) {
	if s.usersCache != nil {
		if count, ok := s.usersCache.GetPostsCount(authorID); ok {
			return count, nil
		}
	}
	count, err := queries.CountAuthorPosts(s.db, authorID)
	if err != nil {
		return 0, err
	}
	if s.usersCache != nil {
		s.usersCache.SetPostsCount(authorID, count)
	}
	return count, nil
}
