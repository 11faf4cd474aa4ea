package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestRenderEmail_EveryKind(t *testing.T) {
	until := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	data := EmailData{
		Name: "Jane", Subject: "New claim", Detail: "details", URL: "https://texaslobby.org/lobbyists/jane-doe",
		Reason: "Missing <b>bio</b>", Category: "incomplete_information", Until: &until,
		BillNumber: "HB 1", BillTitle: "Relief", BillStatus: "Filed", LastAction: "Read first time",
	}

	for kind := range emailTemplates {
		t.Run(kind, func(t *testing.T) {
			msg, err := renderEmail(kind, data)
			require.NoError(t, err)
			assert.NotEmpty(t, msg.Subject)
			assert.NotEmpty(t, msg.Text)
			assert.NotEmpty(t, msg.HTML)
		})
	}
}

func TestRenderEmail_EscapesHTMLOnly(t *testing.T) {
	msg, err := renderEmail(EmailProfileRejected, EmailData{Name: "Jane", Reason: "Missing <b>bio</b>", Category: "other"})

	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Missing <b>bio</b>")
	assert.Contains(t, msg.HTML, "Missing &lt;b&gt;bio&lt;/b&gt;")
}

func TestRenderEmail_SuspensionWithoutExpiry(t *testing.T) {
	msg, err := renderEmail(EmailAccountSuspended, EmailData{Name: "Jane", Reason: "Spam"})

	require.NoError(t, err)
	assert.NotContains(t, msg.Text, "Until")
}

func TestRenderEmail_UnknownKind(t *testing.T) {
	_, err := renderEmail("carrier_pigeon", EmailData{})
	assert.Error(t, err)
}

func TestEmailService_Notify(t *testing.T) {
	client := &mockSES{}
	svc := NewEmailServiceWithClient(client, "noreply@texaslobby.org", []string{"ops@texaslobby.org"}, testLogger())

	require.NoError(t, svc.Notify(context.Background(), "jane@example.com", EmailBillUpdate, EmailData{Name: "Jane", BillNumber: "HB 9"}))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "noreply@texaslobby.org", aws.ToString(in.Source))
	assert.Equal(t, []string{"jane@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "HB 9 was updated", aws.ToString(in.Message.Subject.Data))
}

func TestEmailService_NotifyErrors(t *testing.T) {
	client := &mockSES{err: errors.New("throttled")}
	svc := NewEmailServiceWithClient(client, "noreply@texaslobby.org", nil, testLogger())

	assert.Error(t, svc.Notify(context.Background(), "jane@example.com", EmailAccountDeleted, EmailData{}))
	assert.Error(t, svc.Notify(context.Background(), " ", EmailAccountDeleted, EmailData{}))
	assert.NoError(t, svc.NotifyAdmins(context.Background(), EmailData{Subject: "dropped"}))
	assert.Len(t, client.inputs, 1)
}

func TestEmailService_LogProviderSendsNothing(t *testing.T) {
	svc := NewEmailServiceWithClient(nil, "noreply@texaslobby.org", []string{"ops@texaslobby.org"}, testLogger())

	assert.NoError(t, svc.NotifyAdmins(context.Background(), EmailData{Subject: "New report"}))
}

func TestSendBestEffort_SwallowsFailure(t *testing.T) {
	n := &MockNotifier{NotifyErr: errors.New("smtp down")}

	assert.NotPanics(t, func() {
		sendBestEffort(context.Background(), testLogger(), n, "jane@example.com", EmailClaimApproved, EmailData{})
		sendBestEffort(context.Background(), testLogger(), n, "", EmailClaimApproved, EmailData{})
		sendBestEffort(context.Background(), testLogger(), nil, "jane@example.com", EmailClaimApproved, EmailData{})
	})
}
