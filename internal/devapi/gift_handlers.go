package devapi

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"smilegift/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	minGiftAmount       = 1
	maxGiftAmount       = 10000
	maxGiftMessageRunes = 100
)

// CreateGift handles POST /api/gifts. Gifts are recorded as pending; the
// transaction id is whatever the client reports.
func (s *Server) CreateGift(c *fiber.Ctx) error {
	var req models.CreateGiftInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.TransactionID = strings.TrimSpace(req.TransactionID)

	switch {
	case !isObjectID(req.PostID):
		return badRequest(c, "Invalid post ID")
	case math.IsNaN(req.Amount) || req.Amount < minGiftAmount:
		return badRequest(c, "Amount must be at least ₹1")
	case req.Amount > maxGiftAmount:
		return badRequest(c, "Amount cannot exceed ₹10,000")
	case req.TransactionID == "":
		return badRequest(c, "Transaction ID is required")
	case utf8.RuneCountInString(req.Message) > maxGiftMessageRunes:
		return badRequest(c, "Message cannot exceed 100 characters")
	}

	post, err := s.repo.GetPost(c.UserContext(), req.PostID, "")
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	senderID := currentUserID(c)
	if post.Author.ID == senderID {
		return badRequest(c, "You cannot send a gift to your own post")
	}

	gift := &models.Gift{
		Sender:        &models.User{ID: senderID},
		Recipient:     &models.User{ID: post.Author.ID},
		PostID:        post.ID,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
		Status:        models.GiftPending,
		Message:       strings.TrimSpace(req.Message),
		PaymentMethod: models.PaymentMethodUPI,
	}
	if err := s.repo.CreateGift(c.UserContext(), gift); err != nil {
		if errors.Is(err, ErrConflict) {
			return respondWithError(c, fiber.StatusConflict,
				models.NewValidationError("Transaction ID has already been used"))
		}
		return respondWithRepoError(c, "Gift", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Gift recorded successfully",
		"gift":    gift,
	})
}

// ListGifts handles GET /api/gifts: the caller's sent and received gifts.
func (s *Server) ListGifts(c *fiber.Ctx) error {
	status := models.GiftStatus(c.Query("status"))
	return s.giftPage(c, GiftQuery{ParticipantID: currentUserID(c), Status: status}, false)
}

// GetPostGifts handles GET /api/gifts/post/:postId
func (s *Server) GetPostGifts(c *fiber.Ctx) error {
	postID, ok := parseID(c, "postId", "post")
	if !ok {
		return nil
	}
	if _, err := s.repo.GetPost(c.UserContext(), postID, ""); err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return s.giftPage(c, GiftQuery{PostID: postID}, true)
}

// GetUserGifts handles GET /api/gifts/user/:userId?type=sent|received
func (s *Server) GetUserGifts(c *fiber.Ctx) error {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return nil
	}
	q := GiftQuery{Status: models.GiftStatus(c.Query("status"))}
	switch models.GiftDirection(c.Query("type", string(models.GiftsReceived))) {
	case models.GiftsSent:
		q.SenderID = userID
	case models.GiftsReceived:
		q.RecipientID = userID
	default:
		return badRequest(c, "type must be 'sent' or 'received'")
	}
	return s.giftPage(c, q, true)
}

func (s *Server) giftPage(c *fiber.Ctx, q GiftQuery, withTotals bool) error {
	p := parsePage(c, 20)
	q.Offset, q.Limit = p.offset(), p.Limit

	gifts, total, err := s.repo.ListGifts(c.UserContext(), q)
	if err != nil {
		return respondWithRepoError(c, "Gift", err)
	}
	out := models.GiftsPage{Gifts: gifts, Pagination: paginate(p, total)}

	if withTotals {
		q.Offset, q.Limit = 0, 0
		all, _, err := s.repo.ListGifts(c.UserContext(), q)
		if err != nil {
			return respondWithRepoError(c, "Gift", err)
		}
		totals := giftTotals(all)
		out.Stats = &totals
	}
	return c.JSON(out)
}

// GetGift handles GET /api/gifts/:id. Only the sender and recipient may read it.
func (s *Server) GetGift(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "gift")
	if !ok {
		return nil
	}
	gift, err := s.repo.GetGift(c.UserContext(), id)
	if err != nil {
		return respondWithRepoError(c, "Gift", err)
	}
	if uid := currentUserID(c); gift.Sender.ID != uid && gift.Recipient.ID != uid {
		return respondWithRepoError(c, "Gift", ErrNotFound)
	}
	return c.JSON(fiber.Map{"gift": gift})
}

// GetUserGiftStats handles GET /api/gifts/user/:userId/stats
func (s *Server) GetUserGiftStats(c *fiber.Ctx) error {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return nil
	}
	if _, err := s.repo.GetUser(c.UserContext(), userID); err != nil {
		return respondWithRepoError(c, "User", err)
	}
	gifts, _, err := s.repo.ListGifts(c.UserContext(), GiftQuery{ParticipantID: userID})
	if err != nil {
		return respondWithRepoError(c, "Gift", err)
	}
	return c.JSON(fiber.Map{"stats": giftStats(userID, gifts, s.now())})
}

// VerifyPayment handles POST /api/gifts/:transactionId/verify. The sender
// confirms a pending gift by quoting a payment id.
func (s *Server) VerifyPayment(c *fiber.Ctx) error {
	txID := c.Params("transactionId")
	var req struct {
		PaymentID string `json:"paymentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		return badRequest(c, "Payment ID is required")
	}
	if txID == models.ManualTransactionID {
		return badRequest(c, "Gifts without a transaction ID cannot be verified")
	}

	gift, err := s.repo.GetGiftByTransaction(c.UserContext(), txID)
	if err != nil {
		return respondWithRepoError(c, "Gift", err)
	}
	if gift.Sender.ID != currentUserID(c) {
		return respondWithError(c, fiber.StatusForbidden, &models.AppError{
			Code: models.CodeUnauthorized, Message: "Only the sender can verify this gift",
		})
	}
	if gift.Status != models.GiftPending {
		return badRequest(c, "Gift is not pending verification")
	}

	gift, err = s.repo.UpdateGift(c.UserContext(), gift.ID, func(g *models.Gift) error {
		g.Status = models.GiftConfirmed
		return nil
	})
	if err != nil {
		return respondWithRepoError(c, "Gift", err)
	}
	return c.JSON(fiber.Map{
		"message": "Payment verified",
		"gift":    gift,
	})
}
