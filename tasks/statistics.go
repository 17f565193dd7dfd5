package tasks

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/storage/cache"
	"yatube/storage/queries"
)

// StatisticsUpdater periodically recomputes per-author post counts and
// pushes them into the users cache, so listing views can serve counters
// without hitting the DB on every request.
type StatisticsUpdater struct {
	db         *gorm.DB
	usersCache *cache.Users
	interval   time.Duration
}

func NewStatisticsUpdater(db *gorm.DB, usersCache *cache.Users, interval time.Duration) *StatisticsUpdater {
	return &StatisticsUpdater{
		db:         db,
		usersCache: usersCache,
		interval:   interval,
	}
}

func (u *StatisticsUpdater) Run() {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.refresh()
	for range ticker.C {
		u.refresh()
	}
}

func (u *StatisticsUpdater) refresh() {
	counts, err := queries.CountPostsByAuthor(u.db)
	if err != nil {
		log.Errorf("Error refreshing post statistics: %v", err)
		return
	}
	for _, entry := range counts {
		u.usersCache.SetPostsCount(entry.AuthorID, entry.Count)
	}
}
