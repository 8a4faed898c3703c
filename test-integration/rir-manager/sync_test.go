package integration

import (
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/test-integration/rir-manager/helpers"
)

const (
	orgHandle = "EXMPL-ARIN"
	apiKey    = "API-KEY-1234"
	userID    = 7
)

var _ = Describe("Registry Sync Integration", Label("sync"), func() {
	var (
		tempDir      string
		arin         *helpers.MockARINServer
		serverHelper *helpers.ServerTestHelper
		configID     int64
	)

	startServer := func(key string) {
		configFile := helpers.WriteConfigYAML(tempDir, helpers.ConfigOptions{
			RegistryName: "arin-test",
			ARINURL:      arin.URL,
			OrgHandle:    orgHandle,
			UserID:       userID,
			APIKey:       key,
		})
		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)

		configs, err := serverHelper.Store().ListActiveConfigs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(configs).To(HaveLen(1))
		configID = configs[0].ID
	}

	BeforeEach(func() {
		tempDir = createTempDir("rir-sync-test-")
		arin = helpers.NewMockARINServerBuilder(apiKey).
			WithOrganization(orgHandle, "Example Networks", "TECH1-ARIN", "GONE-ARIN").
			WithContact("TECH1-ARIN", "Ada", "Lovelace", "ada@example.net").
			Build()
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
		}
		arin.Close()
		cleanupTempDir(tempDir)
	})

	Context("with a valid credential", func() {
		BeforeEach(func() {
			startServer(apiKey)
		})

		It("mirrors the organization and its contacts", func() {
			resp, err := serverHelper.Do(http.MethodPost,
				fmt.Sprintf("/api/v1/configs/%d/sync", configID),
				map[string]any{"scopes": []string{"organizations", "contacts"}},
				helpers.AsUser(userID))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			Eventually(func() ([]models.Contact, error) {
				return serverHelper.Store().ListContacts(ctx, configID)
			}, 10*time.Second, 50*time.Millisecond).Should(HaveLen(1))

			org, err := serverHelper.Store().GetOrganizationByHandle(ctx, orgHandle)
			Expect(err).NotTo(HaveOccurred())
			Expect(org.Name).To(Equal("Example Networks"))
			Expect(org.City).To(Equal("Chantilly"))
			Expect(org.SyncedBy).NotTo(BeNil())

			contacts, err := serverHelper.Store().ListContacts(ctx, configID)
			Expect(err).NotTo(HaveOccurred())
			Expect(contacts[0].Handle).To(Equal("TECH1-ARIN"))
			Expect(contacts[0].Email).To(Equal("ada@example.net"))
			Expect(contacts[0].OrganizationID).To(HaveValue(Equal(org.ID)))

			Eventually(arin.Requests, 5*time.Second, 50*time.Millisecond).Should(ContainElements(
				"/rest/org/"+orgHandle, "/rest/poc/TECH1-ARIN", "/rest/poc/GONE-ARIN"))
		})

		It("records every synced object in the audit log", func() {
			resp, err := serverHelper.Do(http.MethodPost,
				fmt.Sprintf("/api/v1/configs/%d/sync", configID),
				map[string]any{"scopes": []string{"organizations", "contacts"}},
				helpers.AsUser(userID))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()

			Eventually(func() ([]models.AuditLogEntry, error) {
				return serverHelper.Store().ListAuditLog(ctx, configID)
			}, 10*time.Second, 50*time.Millisecond).Should(ContainElement(SatisfyAll(
				HaveField("ObjectType", models.ObjectOrganization),
				HaveField("ObjectHandle", orgHandle),
				HaveField("Status", models.StatusSuccess),
			)))
		})

		It("rejects callers without a credential", func() {
			resp, err := serverHelper.Do(http.MethodPost,
				fmt.Sprintf("/api/v1/configs/%d/sync", configID), nil, helpers.AsUser(userID+1))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		})

		It("rejects unknown scopes", func() {
			resp, err := serverHelper.Do(http.MethodPost,
				fmt.Sprintf("/api/v1/configs/%d/sync", configID),
				map[string]any{"scopes": []string{"tickets"}},
				helpers.AsUser(userID))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Context("with a rejected API key", func() {
		BeforeEach(func() {
			startServer("WRONG-KEY")
		})

		It("stores nothing and audits the failure", func() {
			resp, err := serverHelper.Do(http.MethodPost,
				fmt.Sprintf("/api/v1/configs/%d/sync", configID),
				map[string]any{"scopes": []string{"organizations"}},
				helpers.AsUser(userID))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			Eventually(func() ([]models.AuditLogEntry, error) {
				return serverHelper.Store().ListAuditLog(ctx, configID)
			}, 10*time.Second, 50*time.Millisecond).Should(ContainElement(SatisfyAll(
				HaveField("ObjectHandle", orgHandle),
				HaveField("Status", models.StatusError),
			)))

			orgs, err := serverHelper.Store().ListOrganizations(ctx, configID)
			Expect(err).NotTo(HaveOccurred())
			Expect(orgs).To(BeEmpty())
		})
	})
})
