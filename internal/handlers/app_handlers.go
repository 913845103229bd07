package handlers

// AppHandlers aggregates every mounted handler for route
// registration.
type AppHandlers struct {
	ProfileHandler    *ProfileHandler
	WorkHandler       *WorkHandler
	MediaDraftHandler *MediaDraftHandler
	SocialLinkHandler *SocialLinkHandler
	DiscoveryHandler  *DiscoveryHandler
	RevalidateHandler *RevalidateHandler
	FileHandler       *FileHandler
}
