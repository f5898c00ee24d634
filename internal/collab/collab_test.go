package collab_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/example/studydeck/internal/collab"
	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/srs"
	"github.com/example/studydeck/pkg/models"
)

const (
	ownerID     int64 = 1
	recipientID int64 = 2
)

var _ = Describe("Collaboration manager", func() {
	var (
		ctx       context.Context
		projector *srs.IntervalProjector
		manager   *collab.Manager
		topic     *models.Topic
		cards     []*models.Card
	)

	countConfigs := func(topicID, userID int64) int {
		var n int
		query := database.DB.Rebind("SELECT COUNT(*) FROM configs WHERE topic_id = ? AND user_id = ?")
		Expect(database.DB.Get(&n, query, topicID, userID)).To(Succeed())
		return n
	}

	countProgress := func(topicID, userID int64) int {
		n, err := database.NewProgressRepository().CountForTopic(ctx, topicID, userID)
		Expect(err).NotTo(HaveOccurred())
		return n
	}

	BeforeEach(func() {
		ctx = context.Background()
		Expect(database.ConnectTest()).To(Succeed())
		projector = srs.NewIntervalProjector()
		manager = collab.NewManager(projector)

		// A topic owned by ownerID with three cards and full progress.
		topic = &models.Topic{UserID: ownerID, Title: "Pharmacology"}
		Expect(database.NewTopicRepository().Create(ctx, topic)).To(Succeed())
		cfg := &models.Config{TopicID: topic.ID, UserID: ownerID, Reviewing: true, RecallThreshold: 0.8}
		Expect(database.NewConfigRepository().CreateIfAbsent(ctx, cfg)).To(Succeed())

		cards = nil
		now := time.Now().UTC()
		for _, front := range []string{"aspirin", "ibuprofen", "paracetamol"} {
			card := &models.Card{TopicID: topic.ID, Front: front, Back: "analgesic"}
			Expect(database.NewCardRepository().Create(ctx, card)).To(Succeed())
			progress := srs.NewProgress(ownerID, card.ID, now)
			progress.Level = 4
			Expect(database.NewProgressRepository().CreateIfAbsent(ctx, &progress)).To(Succeed())
			cards = append(cards, card)
		}
	})

	AfterEach(func() {
		Expect(database.Close()).To(Succeed())
	})

	Describe("Share", func() {
		It("creates an independent copy for the recipient", func() {
			copied, err := manager.Share(ctx, topic.ID, recipientID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(copied.ID).NotTo(Equal(topic.ID))
			Expect(copied.UserID).To(Equal(recipientID))
			Expect(copied.Title).To(Equal(topic.Title))

			copiedCards, err := database.NewCardRepository().GetByTopic(ctx, copied.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(copiedCards).To(HaveLen(len(cards)))
			for i, c := range copiedCards {
				Expect(c.ID).NotTo(Equal(cards[i].ID))
				Expect(c.Front).To(Equal(cards[i].Front))
				Expect(c.Back).To(Equal(cards[i].Back))
			}

			Expect(countConfigs(copied.ID, recipientID)).To(Equal(1))
			Expect(countProgress(copied.ID, recipientID)).To(Equal(len(cards)))

			// Recipient progress starts fresh at level 1.
			p, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, copiedCards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Level).To(Equal(1))
		})

		It("does not touch the source topic, cards or progress", func() {
			_, err := manager.Share(ctx, topic.ID, recipientID, nil)
			Expect(err).NotTo(HaveOccurred())

			sourceCards, err := database.NewCardRepository().GetByTopic(ctx, topic.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(sourceCards).To(HaveLen(len(cards)))

			Expect(countProgress(topic.ID, ownerID)).To(Equal(len(cards)))
			Expect(countProgress(topic.ID, recipientID)).To(Equal(0))

			p, err := database.NewProgressRepository().GetByUserAndCard(ctx, ownerID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Level).To(Equal(4))
		})

		It("attaches the copy to a subject when one is given", func() {
			subject := &models.Subject{UserID: recipientID, Name: "Medicine"}
			Expect(database.NewSubjectRepository().Create(ctx, subject)).To(Succeed())

			copied, err := manager.Share(ctx, topic.ID, recipientID, &subject.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(copied.SubjectID).NotTo(BeNil())
			Expect(*copied.SubjectID).To(Equal(subject.ID))
		})

		It("fails with NotFound for an unknown topic", func() {
			_, err := manager.Share(ctx, 9999, recipientID, nil)
			Expect(err).To(MatchError(database.ErrNotFound))
		})

		It("fails with NotFound for a subject owned by someone else", func() {
			subject := &models.Subject{UserID: ownerID, Name: "Not yours"}
			Expect(database.NewSubjectRepository().Create(ctx, subject)).To(Succeed())

			_, err := manager.Share(ctx, topic.ID, recipientID, &subject.ID)
			Expect(err).To(MatchError(database.ErrNotFound))
		})

		It("fails with NotFound for an unknown subject", func() {
			missing := int64(9999)
			_, err := manager.Share(ctx, topic.ID, recipientID, &missing)
			Expect(err).To(MatchError(database.ErrNotFound))
		})
	})

	Describe("AddCollaborator", func() {
		It("creates a config and progress for every existing card", func() {
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())

			Expect(countConfigs(topic.ID, recipientID)).To(Equal(1))
			Expect(countProgress(topic.ID, recipientID)).To(Equal(len(cards)))

			p, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Level).To(Equal(1))
		})

		It("is idempotent", func() {
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())

			Expect(countConfigs(topic.ID, recipientID)).To(Equal(1))
			Expect(countProgress(topic.ID, recipientID)).To(Equal(len(cards)))
		})

		It("keeps collaborator progress independent of the owner's", func() {
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())

			p, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			srs.Advance(p, projector, true, 3*time.Second, time.Now().UTC())
			Expect(database.NewProgressRepository().Update(ctx, p)).To(Succeed())

			ownerProgress, err := database.NewProgressRepository().GetByUserAndCard(ctx, ownerID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ownerProgress.Level).To(Equal(4))
		})

		It("fails with NotFound for an unknown topic", func() {
			Expect(manager.AddCollaborator(ctx, 9999, recipientID)).To(MatchError(database.ErrNotFound))
		})
	})

	Describe("RemoveCollaborator", func() {
		It("deletes only the recipient's config and progress", func() {
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())
			Expect(manager.RemoveCollaborator(ctx, topic.ID, recipientID)).To(Succeed())

			Expect(countConfigs(topic.ID, recipientID)).To(Equal(0))
			Expect(countProgress(topic.ID, recipientID)).To(Equal(0))
			Expect(countConfigs(topic.ID, ownerID)).To(Equal(1))
			Expect(countProgress(topic.ID, ownerID)).To(Equal(len(cards)))
		})

		It("re-adding yields fresh progress, not resurrected state", func() {
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())

			p, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			p.Level = 7
			Expect(database.NewProgressRepository().Update(ctx, p)).To(Succeed())

			Expect(manager.RemoveCollaborator(ctx, topic.ID, recipientID)).To(Succeed())
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())

			fresh, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.Level).To(Equal(1))
		})

		It("is a no-op for a user who never collaborated", func() {
			Expect(manager.RemoveCollaborator(ctx, topic.ID, recipientID)).To(Succeed())
		})
	})

	Describe("ResetAll", func() {
		It("puts every card back to level 1 with a projected due date", func() {
			before := time.Now().UTC()
			Expect(manager.ResetAll(ctx, topic.ID, ownerID)).To(Succeed())

			for _, card := range cards {
				p, err := database.NewProgressRepository().GetByUserAndCard(ctx, ownerID, card.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Level).To(Equal(1))
				Expect(p.DueDate).To(BeTemporally("~", projector.Project(before, 1), time.Minute))
			}
		})

		It("leaves other collaborators' progress alone", func() {
			Expect(manager.AddCollaborator(ctx, topic.ID, recipientID)).To(Succeed())
			p, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			p.Level = 6
			Expect(database.NewProgressRepository().Update(ctx, p)).To(Succeed())

			Expect(manager.ResetAll(ctx, topic.ID, ownerID)).To(Succeed())

			untouched, err := database.NewProgressRepository().GetByUserAndCard(ctx, recipientID, cards[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(untouched.Level).To(Equal(6))
		})
	})
})
