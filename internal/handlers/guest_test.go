package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/dto"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/logging"
	"github.com/yukikurage/party-planner-api/internal/middleware"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/services"
	"github.com/yukikurage/party-planner-api/internal/testutil"
	"github.com/yukikurage/party-planner-api/internal/token"
	"gorm.io/gorm"
)

// GuestHandlerTestSuite drives the guest link routes and the admin RSVP
// override through real middleware.
type GuestHandlerTestSuite struct {
	suite.Suite
	db          *gorm.DB
	repos       *repository.Repositories
	dispatcher  *testutil.RecordingDispatcher
	access      *services.AccessService
	invitations *services.InvitationService
	potluck     *services.PotluckService
	router      *gin.Engine

	organizer *models.Person
	alice     *models.Person
	bob       *models.Person
	event     *models.Event
	household *models.Household
	invite    *models.EventInvitation

	sessionPersonID uint64
}

// SetupTest runs before each test
func (suite *GuestHandlerTestSuite) SetupTest() {
	t := suite.T()
	suite.db = testutil.NewTestDB(t)
	suite.repos = repository.New(suite.db)
	suite.dispatcher = testutil.NewRecordingDispatcher()

	logger := logging.Nop()
	settings := services.DefaultSettings()
	codec := token.NewCodec("test-secret")
	notifications := services.NewNotificationService(suite.repos.Notifications, suite.dispatcher, logger)
	directory := services.NewDirectoryService(suite.repos)
	events := services.NewEventService(suite.repos, settings, logger)
	invitations := services.NewInvitationService(suite.repos, codec, notifications, settings, logger)
	rsvps := services.NewRSVPService(suite.repos, notifications, settings, logger)
	referrals := services.NewReferralService(suite.repos, codec, notifications, directory, settings, logger)
	suite.access = services.NewAccessService(suite.repos, events, invitations, referrals)
	suite.invitations = invitations
	suite.potluck = services.NewPotluckService(suite.repos, nil, logger)

	suite.organizer = testutil.CreatePerson(t, suite.db, "Olivia", testutil.WithEmail("olivia@example.com"))
	suite.event = testutil.CreateEvent(t, suite.db, suite.organizer)
	suite.alice = testutil.CreatePerson(t, suite.db, "Alice", testutil.WithEmail("alice@example.com"))
	suite.bob = testutil.CreatePerson(t, suite.db, "Bob")
	suite.household = testutil.CreateHousehold(t, suite.db, "The Smiths", suite.alice, suite.bob)

	var err error
	suite.invite, _, err = invitations.CreateInvitation(suite.event.ID, suite.household.ID)
	suite.Require().NoError(err)

	guestHandler := NewGuestHandler(rsvps, referrals, directory)
	eventHandler := NewEventHandler(events, rsvps, referrals, notifications)
	potluckHandler := NewPotluckHandler(suite.potluck)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	guest := suite.router.Group("/rsvp/:token", middleware.RequireGuestAccess(middleware.InvitationToken(suite.access)))
	guest.GET("", guestHandler.View)
	guest.PUT("/rsvps", guestHandler.UpdateHouseholdRSVPs)
	guest.PUT("/rsvp", guestHandler.UpdateRSVP)
	guest.POST("/potluck/:item_id/claim", potluckHandler.Claim)
	guest.POST("/friends", guestHandler.InviteFriend)

	suite.sessionPersonID = 0
	admin := suite.router.Group("/api/events/:id",
		func(c *gin.Context) {
			if suite.sessionPersonID != 0 {
				c.Set(constants.ContextKeyPersonID, suite.sessionPersonID)
			}
		},
		middleware.RequireEventAccess(suite.access),
		middleware.RequireEventAdmin(),
	)
	admin.PUT("/rsvps/:rsvp_id", eventHandler.OverrideRSVP)
}

func (suite *GuestHandlerTestSuite) request(method, url string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *GuestHandlerTestSuite) guestURL(path string) string {
	return "/rsvp/" + suite.invite.Token + path
}

func (suite *GuestHandlerTestSuite) rsvpFor(person *models.Person) *models.RSVP {
	rsvp, err := suite.repos.RSVPs.FindByEventAndPerson(suite.event.ID, person.ID)
	suite.Require().NoError(err)
	return rsvp
}

func (suite *GuestHandlerTestSuite) TestView_Success() {
	w := suite.request(http.MethodGet, suite.guestURL(""), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var view struct {
		HouseholdID *uint64         `json:"household_id"`
		Members     []dto.PersonDTO `json:"members"`
		RSVPs       []dto.RSVPDTO   `json:"rsvps"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &view))
	suite.Require().NotNil(view.HouseholdID)
	assert.Equal(suite.T(), suite.household.ID, *view.HouseholdID)
	assert.Len(suite.T(), view.Members, 2)
	assert.Len(suite.T(), view.RSVPs, 2)
}

func (suite *GuestHandlerTestSuite) TestView_InvalidToken() {
	w := suite.request(http.MethodGet, "/rsvp/not-a-token", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	var apiErr apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(suite.T(), apierrors.ErrCodeInvalidToken, apiErr.Code)
}

func (suite *GuestHandlerTestSuite) TestView_MemberOutsideHousehold() {
	stranger := testutil.CreatePerson(suite.T(), suite.db, "Stranger")
	w := suite.request(http.MethodGet, suite.guestURL(fmt.Sprintf("?as=%d", stranger.ID)), nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, suite.guestURL("?as=abc"), nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *GuestHandlerTestSuite) TestUpdateHouseholdRSVPs_Success() {
	payload := map[string]interface{}{
		"responses": []map[string]interface{}{
			{"person_id": suite.alice.ID, "status": "attending"},
			{"person_id": suite.bob.ID, "status": "not_attending"},
		},
	}
	w := suite.request(http.MethodPut, suite.guestURL("/rsvps"), payload)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		Changed           []uint64 `json:"changed"`
		NotificationsSent int      `json:"notifications_sent"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(suite.T(), response.Changed, 2)
	// Bob has no email address.
	assert.Equal(suite.T(), 1, response.NotificationsSent)
	assert.Equal(suite.T(), models.RSVPAttending, suite.rsvpFor(suite.alice).Status)

	w = suite.request(http.MethodPut, suite.guestURL("/rsvps"), payload)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(suite.T(), response.Changed)
	assert.Equal(suite.T(), 1, suite.dispatcher.Count())
}

func (suite *GuestHandlerTestSuite) TestUpdateHouseholdRSVPs_InvalidRequest() {
	w := suite.request(http.MethodPut, suite.guestURL("/rsvps"), map[string]interface{}{"responses": []interface{}{}})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var apiErr struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(suite.T(), apierrors.ErrCodeInvalidInput, apiErr.Code)
	assert.Equal(suite.T(), "min", apiErr.Details["Responses"])

	w = suite.request(http.MethodPut, suite.guestURL("/rsvps"), map[string]interface{}{
		"responses": []map[string]interface{}{{"person_id": suite.alice.ID, "status": "perhaps"}},
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *GuestHandlerTestSuite) TestUpdateRSVP_NeedsActingPerson() {
	w := suite.request(http.MethodPut, suite.guestURL("/rsvp"), map[string]interface{}{"status": "maybe"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPut, suite.guestURL(fmt.Sprintf("/rsvp?as=%d", suite.bob.ID)), map[string]interface{}{"status": "maybe"})
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.RSVPMaybe, suite.rsvpFor(suite.bob).Status)
}

func (suite *GuestHandlerTestSuite) TestOverrideRSVP_Success() {
	rsvp := suite.rsvpFor(suite.bob)
	suite.sessionPersonID = suite.organizer.ID

	w := suite.request(http.MethodPut, fmt.Sprintf("/api/events/%d/rsvps/%d", suite.event.ID, rsvp.ID), map[string]interface{}{
		"status": "attending",
		"notes":  "confirmed by phone",
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.RSVPDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), models.RSVPAttending, response.Status)
	assert.True(suite.T(), response.UpdatedByHost)
	assert.Zero(suite.T(), suite.dispatcher.Count())
}

func (suite *GuestHandlerTestSuite) TestOverrideRSVP_NotAdmin() {
	rsvp := suite.rsvpFor(suite.bob)
	suite.sessionPersonID = suite.alice.ID

	w := suite.request(http.MethodPut, fmt.Sprintf("/api/events/%d/rsvps/%d", suite.event.ID, rsvp.ID), map[string]interface{}{
		"status": "attending",
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *GuestHandlerTestSuite) TestOverrideRSVP_Unauthorized() {
	w := suite.request(http.MethodPut, fmt.Sprintf("/api/events/%d/rsvps/1", suite.event.ID), map[string]interface{}{
		"status": "attending",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *GuestHandlerTestSuite) TestClaim_OutcomeStatusCodes() {
	host, err := suite.access.FromSession(suite.event.ID, suite.organizer.ID)
	suite.Require().NoError(err)
	item, err := suite.potluck.CreateSuggestedItem(host, services.ItemInput{Name: "Green salad", Category: "salad"})
	suite.Require().NoError(err)

	url := suite.guestURL(fmt.Sprintf("/potluck/%d/claim?as=%d", item.ID, suite.alice.ID))
	w := suite.request(http.MethodPost, url, map[string]interface{}{"notes": "with dressing"})
	suite.Require().Equal(http.StatusCreated, w.Code)

	var response struct {
		Outcome services.ClaimOutcome `json:"outcome"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), services.ClaimCreated, response.Outcome)

	w = suite.request(http.MethodPost, url, map[string]interface{}{})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), services.ClaimAlreadyClaimed, response.Outcome)

	w = suite.request(http.MethodPost, suite.guestURL("/potluck/abc/claim"), map[string]interface{}{})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	w = suite.request(http.MethodPost, suite.guestURL("/potluck/9999/claim?as="+fmt.Sprint(suite.alice.ID)), map[string]interface{}{})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *GuestHandlerTestSuite) TestInviteFriend_KnownFriendIsConflict() {
	friend := map[string]interface{}{"first_name": "Frank", "email": "frank@example.com"}

	w := suite.request(http.MethodPost, suite.guestURL(fmt.Sprintf("/friends?as=%d", suite.alice.ID)), friend)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var created map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	assert.Contains(suite.T(), created["url"], "/f/")

	carol := testutil.CreatePerson(suite.T(), suite.db, "Carol", testutil.WithEmail("carol@example.com"))
	other := testutil.CreateHousehold(suite.T(), suite.db, "The Joneses", carol)
	otherInvite, _, err := suite.invitations.CreateInvitation(suite.event.ID, other.ID)
	suite.Require().NoError(err)

	url := fmt.Sprintf("/rsvp/%s/friends?as=%d", otherInvite.Token, carol.ID)
	w = suite.request(http.MethodPost, url, friend)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.NotContains(suite.T(), w.Body.String(), "/f/")
	assert.NotContains(suite.T(), w.Body.String(), "referral")
}

func TestGuestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GuestHandlerTestSuite))
}
