package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/homy/homyadmin/api"
	"github.com/homy/homyadmin/homy"
	"github.com/homy/homyadmin/table"
	"github.com/labstack/echo/v4"
)

// changed tells the views behind topic that their data is outdated.
func (s *server) changed(topic string) {
	if err := s.bs.Send(topic, nil); err != nil {
		s.log.Warn("publishing change", "topic", topic, "err", err)
		return
	}
	viewActions.WithLabelValues(topic).Inc()
}

// done finishes an action: publish on success, 204 to the caller.
func (s *server) done(c echo.Context, topic string, err error) error {
	if err != nil {
		return err
	}
	s.changed(topic)
	return c.NoContent(http.StatusNoContent)
}

func (s *server) handleGetView(c echo.Context) error {
	p, err := parseParams(c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h, err := s.view(c.Param("name"))
	if err != nil {
		return err
	}
	if err := h.Apply(c.Request().Context(), p); err != nil && !errors.Is(err, table.ErrBusy) {
		// nothing was ever loaded, there is no last good page to show
		if snap := h.Snapshot(); snap.FetchedAt == nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, h.Snapshot())
}

func (s *server) handleRefreshView(c echo.Context) error {
	h, err := s.view(c.Param("name"))
	if err != nil {
		return err
	}
	if err := h.Refresh(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.Snapshot())
}

func (s *server) handleDropView(c echo.Context) error {
	name := c.Param("name")
	if _, ok := viewDefs[name]; !ok {
		return ErrUnknownView
	}
	s.dropView(name)
	return c.NoContent(http.StatusNoContent)
}

func (s *server) handleAssignChef(c echo.Context) error {
	var req api.AssignChefRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.ChefID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chefId is required")
	}
	return s.done(c, topicOrders, s.api.AssignChef(c.Request().Context(), c.Param("id"), req.ChefID))
}

func (s *server) handleGetUser(c echo.Context) error {
	u, err := s.api.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (s *server) handleMeals(c echo.Context) error {
	day := time.Now()
	if d := c.QueryParam("date"); d != "" {
		var err error
		day, err = time.Parse(time.DateOnly, d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}
	meals, err := s.api.MealSchedule(c.Request().Context(), c.Param("id"), day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meals)
}

func (s *server) handleGetChef(c echo.Context) error {
	chef, err := s.api.GetChef(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chef)
}

func (s *server) handleCreateChef(c echo.Context) error {
	var req api.NewChef
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	return s.done(c, topicChefs, s.api.CreateChef(c.Request().Context(), req))
}

func (s *server) handleDeleteChef(c echo.Context) error {
	return s.done(c, topicChefs, s.api.DeleteChef(c.Request().Context(), c.Param("id")))
}

func (s *server) handleChefVerification(c echo.Context) error {
	var req api.ChefVerification
	if err := c.Bind(&req); err != nil {
		return err
	}
	switch req.VerificationStatus {
	case api.VerificationPending, api.VerificationVerified, api.VerificationRejected:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "verificationStatus must be Pending, Verified or Rejected")
	}
	return s.done(c, topicChefs, s.api.UpdateChefVerification(c.Request().Context(), c.Param("id"), req.VerificationStatus))
}

// badRequestIf turns client-side validation failures into 400s.
func badRequestIf(err error) error {
	if errors.Is(err, homy.ErrPlanType) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}

func (s *server) handleCreatePlan(c echo.Context) error {
	var p api.Plan
	if err := c.Bind(&p); err != nil {
		return err
	}
	return s.done(c, topicPlans, badRequestIf(s.api.CreatePlan(c.Request().Context(), p)))
}

func (s *server) handleUpdatePlan(c echo.Context) error {
	var p api.Plan
	if err := c.Bind(&p); err != nil {
		return err
	}
	p.ID = c.Param("id")
	return s.done(c, topicPlans, badRequestIf(s.api.UpdatePlan(c.Request().Context(), p)))
}

func (s *server) handleDeletePlan(c echo.Context) error {
	return s.done(c, topicPlans, s.api.DeletePlan(c.Request().Context(), c.Param("id")))
}

func (s *server) handleCreateCoupon(c echo.Context) error {
	var cp api.Coupon
	if err := c.Bind(&cp); err != nil {
		return err
	}
	if cp.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	return s.done(c, topicCoupons, s.api.CreateCoupon(c.Request().Context(), cp))
}

func (s *server) handleDeactivateCoupon(c echo.Context) error {
	return s.done(c, topicCoupons, s.api.DeactivateCoupon(c.Request().Context(), c.Param("id")))
}

func (s *server) handleTicketStatus(c echo.Context) error {
	var req api.TicketStatus
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}
	return s.done(c, topicTickets, s.api.UpdateTicketStatus(c.Request().Context(), c.Param("id"), req.Status))
}

func (s *server) handleRespondQuery(c echo.Context) error {
	var req api.QueryResponse
	if err := c.Bind(&req); err != nil {
		return err
	}
	return s.done(c, topicQueries, s.api.RespondQuery(c.Request().Context(), c.Param("id"), req.Comment))
}

func (s *server) handleDeleteQuery(c echo.Context) error {
	return s.done(c, topicQueries, s.api.DeleteQuery(c.Request().Context(), c.Param("id")))
}

func (s *server) handleDeleteImage(c echo.Context) error {
	return s.done(c, topicImages, s.api.DeleteImage(c.Request().Context(), c.Param("id")))
}

func (s *server) handleCreatePost(c echo.Context) error {
	var req struct {
		PostDescription string `json:"postDescription"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.PostDescription == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "postDescription is required")
	}
	return s.done(c, topicPosts, s.api.CreatePost(c.Request().Context(), req.PostDescription))
}

func (s *server) handleDeletePost(c echo.Context) error {
	return s.done(c, topicPosts, s.api.DeletePost(c.Request().Context(), c.Param("id")))
}

func (s *server) handleSendNotification(c echo.Context) error {
	var req api.Notification
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	return s.done(c, topicNotifications, s.api.SendNotification(c.Request().Context(), req.Title, req.Description))
}

func (s *server) handleDeleteNotification(c echo.Context) error {
	return s.done(c, topicNotifications, s.api.DeleteNotification(c.Request().Context(), c.Param("id")))
}
