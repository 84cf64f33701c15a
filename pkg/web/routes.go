package web

import "github.com/gofiber/fiber/v3"

// Mount registers every API route on router. auth guards the authenticated routes.
func (h *APIHandlers) Mount(router fiber.Router, auth fiber.Handler) {
	router.Post("/register", h.Register)
	router.Post("/login", h.Login)
	router.Post("/password", auth, h.ChangePassword)

	router.Get("/artifacts/*", h.DownloadArtifact)

	c := router.Group("/campaign", auth)
	c.Post("/", h.CreateCampaign)
	c.Get("/", h.ListCampaigns)
	c.Get("/:id", h.GetCampaign)
	c.Get("/:id/status", h.GetCampaignStatus)
	c.Get("/:id/summary", h.GetCampaignSummary)
	c.Post("/:id/complete", h.CompleteCampaign)
	c.Post("/:id/reopen", h.ReopenCampaign)
	c.Post("/:id/assign-role", h.AssignRole)
	c.Get("/:id/jds", h.GetJobDescriptionURLs)
	c.Post("/:id/add-candidate", h.AddCandidate)
	c.Get("/:id/candidates", h.ListCandidates)
	c.Post("/:id/candidate/:cid/status", h.UpdateCandidateStatus)
	c.Get("/:id/candidate/:cid/resume", h.GetResumeURL)
}
