package templates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderConfirmSignup(t *testing.T) {
	data := ToMap(LinkMailData{
		Nickname: "kimdev",
		Link:     "https://studyhub.example/check-email-token?token=abc&email=kim%40example.com",
		LinkName: "Verify your email",
		Message:  "Click the link to finish signing up for StudyHub.",
		Host:     "https://studyhub.example",
	})

	subject, text, html, err := Render(ConfirmSignup, data)
	require.NoError(t, err)
	require.Equal(t, "StudyHub, confirm your email", subject)
	require.Contains(t, text, "kimdev")
	require.Contains(t, text, "Verify your email: https://studyhub.example/check-email-token")
	require.Contains(t, html, `<a href="https://studyhub.example/check-email-token?token=abc&amp;email=kim%40example.com"`)
}

func TestRenderLoginLink(t *testing.T) {
	data := ToMap(LinkMailData{
		Nickname: "kimdev",
		Link:     "https://studyhub.example/login-by-email?token=abc&email=kim%40example.com",
		LinkName: "Sign in to StudyHub",
		Message:  "Click the link to sign in.",
	})

	subject, text, html, err := Render(LoginLink, data)
	require.NoError(t, err)
	require.Equal(t, "StudyHub, your login link", subject)
	require.Contains(t, text, "Sign in to StudyHub")
	require.Contains(t, html, "signs you in without a password")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no_such_mail", map[string]any{})
	require.Error(t, err)
}
