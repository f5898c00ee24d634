package database_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/pkg/models"
)

const userID int64 = 10

var _ = Describe("Repositories", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		Expect(database.ConnectTest()).To(Succeed())
	})

	AfterEach(func() {
		Expect(database.Close()).To(Succeed())
	})

	Describe("TopicRepository", func() {
		It("rejects an empty title at write time", func() {
			topic := &models.Topic{UserID: userID, Title: ""}
			Expect(database.NewTopicRepository().Create(ctx, topic)).To(MatchError(models.ErrEmptyTitle))

			topics, err := database.NewTopicRepository().GetAllByUserID(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(topics).To(BeEmpty())
		})

		It("returns NotFound for an unknown id", func() {
			_, err := database.NewTopicRepository().GetByID(ctx, 404)
			Expect(err).To(MatchError(database.ErrNotFound))
		})

		It("cascades delete to cards, configs and progress", func() {
			topic := &models.Topic{UserID: userID, Title: "History"}
			Expect(database.NewTopicRepository().Create(ctx, topic)).To(Succeed())
			cfg := &models.Config{TopicID: topic.ID, UserID: userID, RecallThreshold: 0.9}
			Expect(database.NewConfigRepository().CreateIfAbsent(ctx, cfg)).To(Succeed())
			card := &models.Card{TopicID: topic.ID, Front: "1066", Back: "Hastings"}
			Expect(database.NewCardRepository().Create(ctx, card)).To(Succeed())
			progress := &models.Progress{UserID: userID, CardID: card.ID, Level: 1, DueDate: time.Now().UTC()}
			Expect(database.NewProgressRepository().CreateIfAbsent(ctx, progress)).To(Succeed())

			Expect(database.NewTopicRepository().Delete(ctx, topic.ID)).To(Succeed())

			_, err := database.NewCardRepository().GetByID(ctx, card.ID)
			Expect(err).To(MatchError(database.ErrNotFound))
			_, err = database.NewConfigRepository().Get(ctx, topic.ID, userID)
			Expect(err).To(MatchError(database.ErrNotFound))
			_, err = database.NewProgressRepository().GetByUserAndCard(ctx, userID, card.ID)
			Expect(err).To(MatchError(database.ErrNotFound))
		})
	})

	Describe("ConfigRepository", func() {
		var topic *models.Topic

		BeforeEach(func() {
			topic = &models.Topic{UserID: userID, Title: "Physics"}
			Expect(database.NewTopicRepository().Create(ctx, topic)).To(Succeed())
		})

		It("rejects a recall threshold of zero", func() {
			cfg := &models.Config{TopicID: topic.ID, UserID: userID, RecallThreshold: 0}
			Expect(database.NewConfigRepository().CreateIfAbsent(ctx, cfg)).To(MatchError(models.ErrInvalidRecallThreshold))
		})

		It("rejects a recall threshold above one", func() {
			cfg := &models.Config{TopicID: topic.ID, UserID: userID, RecallThreshold: 1.5}
			Expect(database.NewConfigRepository().CreateIfAbsent(ctx, cfg)).To(MatchError(models.ErrInvalidRecallThreshold))
		})

		It("accepts a threshold of exactly one", func() {
			cfg := &models.Config{TopicID: topic.ID, UserID: userID, RecallThreshold: 1}
			Expect(database.NewConfigRepository().CreateIfAbsent(ctx, cfg)).To(Succeed())
		})

		It("only reports reviewing, unarchived configs as eligible", func() {
			cfg := &models.Config{TopicID: topic.ID, UserID: userID, Reviewing: true, RecallThreshold: 0.8}
			Expect(database.NewConfigRepository().CreateIfAbsent(ctx, cfg)).To(Succeed())

			eligible, err := database.NewConfigRepository().GetReviewingByUser(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(eligible).To(HaveLen(1))

			cfg.Archived = true
			Expect(database.NewConfigRepository().Update(ctx, cfg)).To(Succeed())

			eligible, err = database.NewConfigRepository().GetReviewingByUser(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(eligible).To(BeEmpty())
		})
	})

	Describe("ProgressRepository due-date queries", func() {
		var (
			topic *models.Topic
			now   time.Time
		)

		addCard := func(due time.Time) int64 {
			card := &models.Card{TopicID: topic.ID, Front: "q", Back: "a"}
			Expect(database.NewCardRepository().Create(ctx, card)).To(Succeed())
			progress := &models.Progress{UserID: userID, CardID: card.ID, Level: 1, DueDate: due}
			Expect(database.NewProgressRepository().CreateIfAbsent(ctx, progress)).To(Succeed())
			return card.ID
		}

		BeforeEach(func() {
			topic = &models.Topic{UserID: userID, Title: "Chemistry"}
			Expect(database.NewTopicRepository().Create(ctx, topic)).To(Succeed())
			now = time.Now().UTC().Truncate(time.Second)
		})

		It("DueOnOrBefore includes the cutoff itself", func() {
			at := addCard(now)
			addCard(now.Add(time.Second))

			due, err := database.NewProgressRepository().DueOnOrBefore(ctx, userID, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(1))
			Expect(due[0].CardID).To(Equal(at))
		})

		It("DueBefore excludes the cutoff itself", func() {
			addCard(now)
			earlier := addCard(now.Add(-time.Hour))

			due, err := database.NewProgressRepository().DueBefore(ctx, userID, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(1))
			Expect(due[0].CardID).To(Equal(earlier))
		})

		It("DueWithin is closed at the start and open at the end", func() {
			addCard(now.Add(-time.Second))
			atStart := addCard(now)
			addCard(now.Add(time.Hour))

			due, err := database.NewProgressRepository().DueWithin(ctx, userID, now, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(1))
			Expect(due[0].CardID).To(Equal(atStart))
		})

		It("joins each row with its card's topic", func() {
			addCard(now.Add(-time.Hour))

			due, err := database.NewProgressRepository().DueOnOrBefore(ctx, userID, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(1))
			Expect(due[0].TopicID).To(Equal(topic.ID))
		})

		It("Stats counts the cards sitting at the highest level", func() {
			addCard(now) // level 1
			for _, level := range []int{5, 5, 3} {
				card := &models.Card{TopicID: topic.ID, Front: "q", Back: "a"}
				Expect(database.NewCardRepository().Create(ctx, card)).To(Succeed())
				progress := &models.Progress{UserID: userID, CardID: card.ID, Level: level, DueDate: now}
				Expect(database.NewProgressRepository().CreateIfAbsent(ctx, progress)).To(Succeed())
			}

			stats, err := database.NewProgressRepository().Stats(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats["tracked_cards"]).To(Equal(4))
			Expect(stats["max_level"]).To(Equal(5))
			Expect(stats["max_level_cards"]).To(Equal(2))
		})

		It("CreateIfAbsent does not duplicate or overwrite", func() {
			cardID := addCard(now)
			duplicate := &models.Progress{UserID: userID, CardID: cardID, Level: 9, DueDate: now.AddDate(0, 0, 30)}
			Expect(database.NewProgressRepository().CreateIfAbsent(ctx, duplicate)).To(Succeed())

			stored, err := database.NewProgressRepository().GetByUserAndCard(ctx, userID, cardID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Level).To(Equal(1))
		})
	})

	Describe("CardRepository", func() {
		It("fetches cards by id set", func() {
			topic := &models.Topic{UserID: userID, Title: "Biology"}
			Expect(database.NewTopicRepository().Create(ctx, topic)).To(Succeed())
			var ids []int64
			for _, front := range []string{"cell", "gene", "enzyme"} {
				card := &models.Card{TopicID: topic.ID, Front: front, Back: "b"}
				Expect(database.NewCardRepository().Create(ctx, card)).To(Succeed())
				ids = append(ids, card.ID)
			}

			cards, err := database.NewCardRepository().GetByIDs(ctx, ids[:2])
			Expect(err).NotTo(HaveOccurred())
			Expect(cards).To(HaveLen(2))
		})
	})
})
