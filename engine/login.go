package engine

import (
	"strings"
	"time"

	"vizactor/dom"
)

// Credentials for the target app's email/password login.
type Credentials struct {
	Email    string
	Password string
}

// Login fills the sign-in form when one is present and reports whether the
// session ended up authenticated. In headed mode a missing form gets a grace
// window for a human to log in by hand.
func Login(page dom.Page, creds Credentials, headed bool, logger Logger) bool {
	if logger == nil {
		logger = &SimpleLogger{}
	}

	email, _ := page.Query(`input[type="email"], input[name="email"]`)
	password, _ := page.Query(`input[type="password"]`)

	if email != nil && password != nil && creds.Email != "" {
		logger.Printf("🔐 Sign-in form detected, submitting credentials")
		if err := email.Fill(creds.Email); err != nil {
			logger.Errorf("fill email: %v", err)
			return false
		}
		if err := password.Fill(creds.Password); err != nil {
			logger.Errorf("fill password: %v", err)
			return false
		}
		if err := password.Press("Enter"); err != nil {
			logger.Errorf("submit login: %v", err)
			return false
		}
		time.Sleep(5 * time.Second)
		if authenticated(page) {
			logger.Printf("✅ Logged in")
			return true
		}
		logger.Printf("⚠️  Still on the auth screen after submitting credentials")
	}

	if !authenticated(page) && headed {
		logger.Printf("⏳ Waiting up to 60s for a manual login in the headed browser")
		deadline := time.Now().Add(60 * time.Second)
		for time.Now().Before(deadline) {
			if authenticated(page) {
				logger.Printf("✅ Manual login detected")
				return true
			}
			time.Sleep(2 * time.Second)
		}
	}
	return authenticated(page)
}

func authenticated(page dom.Page) bool {
	url := strings.ToLower(page.URL())
	return url != "" && !strings.Contains(url, "auth") && !strings.Contains(url, "login")
}
