package integration

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ipam-rir/rir-manager/test-integration/rir-manager/helpers"
)

const jwtSecret = "integration-host-secret"

func hostToken(subject string, ttl time.Duration) map[string]string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "ipam-host",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}).SignedString([]byte(jwtSecret))
	Expect(err).NotTo(HaveOccurred())
	return map[string]string{"Authorization": "Bearer " + token}
}

var _ = Describe("JWT Auth Integration", Label("auth"), func() {
	var (
		tempDir      string
		arin         *helpers.MockARINServer
		serverHelper *helpers.ServerTestHelper
		syncPath     string
	)

	BeforeEach(func() {
		tempDir = createTempDir("rir-auth-test-")
		arin = helpers.NewMockARINServerBuilder(apiKey).
			WithOrganization(orgHandle, "Example Networks").
			Build()

		configFile := helpers.WriteConfigYAML(tempDir, helpers.ConfigOptions{
			RegistryName: "arin-auth",
			ARINURL:      arin.URL,
			OrgHandle:    orgHandle,
			UserID:       userID,
			APIKey:       apiKey,
			JWTSecret:    jwtSecret,
		})
		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)

		configs, err := serverHelper.Store().ListActiveConfigs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(configs).To(HaveLen(1))
		syncPath = fmt.Sprintf("/api/v1/configs/%d/sync", configs[0].ID)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		arin.Close()
		cleanupTempDir(tempDir)
	})

	DescribeTable("API access",
		func(headers func() map[string]string, wantStatus int) {
			resp, err := serverHelper.Do(http.MethodPost, syncPath, nil, headers())
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(wantStatus))
		},
		Entry("no token", func() map[string]string { return nil }, http.StatusUnauthorized),
		Entry("spoofed user header only", func() map[string]string { return helpers.AsUser(userID) }, http.StatusUnauthorized),
		Entry("expired token", func() map[string]string { return hostToken(fmt.Sprint(userID), -time.Minute) }, http.StatusUnauthorized),
		Entry("token for a user without credential", func() map[string]string { return hostToken("99", time.Minute) }, http.StatusForbidden),
		Entry("token for the credential owner", func() map[string]string { return hostToken(fmt.Sprint(userID), time.Minute) }, http.StatusAccepted),
	)

	It("keeps health endpoints public", func() {
		for _, path := range []string{"/health", "/readiness", "/version"} {
			resp, err := serverHelper.Do(http.MethodGet, path, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK), path)
		}
	})
})
