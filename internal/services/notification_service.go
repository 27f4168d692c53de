package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/shiftloop/fulfillment-service/internal/config"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

const workerAlertEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Shift Update</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; background-color: #f3f4f6; color: #1f2937; margin: 0; padding: 20px; }
  .container { max-width: 600px; margin: auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; }
  .header { background-color: #dbeafe; padding: 15px 20px; border-bottom: 1px solid #bfdbfe; }
  .header h1 { margin: 0; font-size: 20px; color: #1e40af; }
  .content { padding: 20px; }
  .content p { margin-top: 0; }
  ul { list-style: none; padding: 0; }
  li { padding: 8px; border-bottom: 1px solid #eee; }
  li:last-child { border-bottom: none; }
  strong { color: #000; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>%s</p>
      <ul>
        <li><strong>Venue:</strong> %s</li>
        <li><strong>Role:</strong> %s</li>
        <li><strong>Starts:</strong> %s</li>
        <li><strong>Rate:</strong> £%.2f/hr</li>
      </ul>
    </div>
  </div>
</body>
</html>`

/*
   NotificationService turns fulfillment events into worker/venue SMS and
   email. It implements EventDispatcher; delivery runs on its own goroutine
   so a slow Twilio/SendGrid call never sits on the request path, and a
   delivery failure is logged, never surfaced to the committed transition.
*/
type NotificationService struct {
	cfg            *config.Config
	workerRepo     repositories.WorkerRepository
	venueRepo      repositories.VenueRepository
	shiftRepo      repositories.ShiftRepository
	twilioClient   *twilio.RestClient
	sendgridClient *sendgrid.Client
	fallback       LogEventDispatcher
}

func NewNotificationService(
	cfg *config.Config,
	workerRepo repositories.WorkerRepository,
	venueRepo repositories.VenueRepository,
	shiftRepo repositories.ShiftRepository,
) *NotificationService {
	var twClient *twilio.RestClient
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	var sgClient *sendgrid.Client
	if cfg.SendGridAPIKey != "" {
		sgClient = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	return &NotificationService{
		cfg:            cfg,
		workerRepo:     workerRepo,
		venueRepo:      venueRepo,
		shiftRepo:      shiftRepo,
		twilioClient:   twClient,
		sendgridClient: sgClient,
	}
}

func (s *NotificationService) Dispatch(ctx context.Context, event Event) {
	s.fallback.Dispatch(ctx, event)

	title, body := messageForEvent(event)
	if title == "" || event.WorkerID == nil {
		return
	}
	workerID := *event.WorkerID

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		worker, err := s.workerRepo.GetByID(bgCtx, workerID)
		if err != nil || worker == nil {
			utils.Logger.WithError(err).Warnf("Notification skipped, worker %s not loadable", workerID)
			return
		}
		shift, err := s.shiftRepo.GetByID(bgCtx, event.ShiftID)
		if err != nil || shift == nil {
			utils.Logger.WithError(err).Warnf("Notification skipped, shift %s not loadable", event.ShiftID)
			return
		}
		venueName := "(Unknown Venue)"
		if venue, vErr := s.venueRepo.GetByID(bgCtx, shift.VenueID); vErr == nil && venue != nil {
			venueName = venue.Name
		}

		s.sendSMS(worker, title, body, shift, venueName)
		s.sendEmail(worker, title, body, shift, venueName)
	}()
}

func messageForEvent(event Event) (title, body string) {
	switch event.Type {
	case EventApplicationHired:
		return "You're hired!", "A venue confirmed you for an upcoming shift. The date is now reserved in your calendar."
	case EventApplicationClosed:
		return "Application update", "One of your applications was closed. Check the app for details."
	case EventShiftCancelled:
		return "Shift cancelled", "A shift you were booked for has been cancelled. Your availability for that day has been released."
	case EventWorkerNoShow:
		return "Missed shift recorded", "You were marked as a no-show for a shift. Repeated no-shows affect your ranking."
	case EventTimesheetFinalized:
		return "Timesheet submitted", "Your timesheet has been finalized and sent for payment approval."
	}
	return "", ""
}

func (s *NotificationService) sendSMS(worker *models.Worker, title, body string, shift *models.Shift, venueName string) {
	if s.twilioClient == nil {
		utils.Logger.Debugf("Twilio client is nil, skipping SMS to worker %s", worker.ID)
		return
	}
	text := fmt.Sprintf("%s :: %s (%s at %s, starts %s)",
		title, body, shift.Role, venueName, shift.StartTime.UTC().Format("Mon 2 Jan 15:04"))

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(worker.PhoneNumber)
	params.SetFrom(s.cfg.TwilioFromPhone)
	params.SetBody(text)
	if _, err := s.twilioClient.Api.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to send SMS to worker %s", worker.ID)
	}
}

func (s *NotificationService) sendEmail(worker *models.Worker, title, body string, shift *models.Shift, venueName string) {
	if s.sendgridClient == nil {
		utils.Logger.Debugf("SendGrid client is nil, skipping email to worker %s", worker.ID)
		return
	}
	plainText := fmt.Sprintf("%s\n\nVenue: %s\nRole: %s\nStarts: %s\nRate: £%.2f/hr",
		body, venueName, shift.Role, shift.StartTime.UTC().Format(time.RFC1123), shift.HourlyRate)
	htmlBody := fmt.Sprintf(workerAlertEmailHTML,
		title, body, venueName, shift.Role, shift.StartTime.UTC().Format(time.RFC1123), shift.HourlyRate)

	from := mail.NewEmail("ShiftLoop", s.cfg.SendGridFromEmail)
	to := mail.NewEmail(worker.FirstName+" "+worker.LastName, worker.Email)
	msg := mail.NewSingleEmail(from, title, to, plainText, htmlBody)
	msg.TrackingSettings = &mail.TrackingSettings{
		ClickTracking: &mail.ClickTrackingSetting{
			Enable: utils.Ptr(false),
		},
	}
	if s.cfg.LDFlag_SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	if _, err := s.sendgridClient.Send(msg); err != nil {
		utils.Logger.WithError(err).Warnf("Email send failure to worker %s", worker.ID)
	}
}
