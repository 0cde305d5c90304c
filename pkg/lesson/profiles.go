package lesson

import "strings"

// domainProfile holds the prose used to describe a domain inside prompts.
type domainProfile struct {
	challenges string
	business   string
	caseStudy  string
}

var domainProfiles = map[string]domainProfile{
	"fintech":                 {"regulatory compliance, transaction integrity, security", "regulated financial services environment", "high-frequency trading platform"},
	"ecommerce":               {"seasonal traffic spikes, inventory consistency, payment processing", "competitive online retail market", "global marketplace scaling"},
	"healthcare":              {"data privacy, system integration, regulatory compliance", "patient care and medical compliance environment", "patient data exchange system"},
	"gaming":                  {"real-time performance, state synchronization, anti-cheat", "entertainment and user engagement focused industry", "multiplayer game architecture"},
	"iot":                     {"resource constraints, connectivity issues, edge processing", "connected device and smart systems ecosystem", "smart city infrastructure"},
	"entertainment-arts":      {"media pipelines, real-time rendering, collaboration tooling", "creative production and media technology ecosystem", "real-time VFX collaboration pipeline"},
	"comics":                  {"asset management, responsive rendering, platform distribution", "digital publishing and storytelling platforms", "cloud-based collaborative comic editor"},
	"graphic-apps":            {"GPU acceleration, complex UI interactions, plugin ecosystems", "professional creative tools and design workflows", "vector graphics editor plugin system"},
	"creative-coding":         {"live-coding performance, generative pipelines, audiovisual sync", "artistic exploration through code and interactive media", "live-coded audiovisual performance toolkit"},
	"server-side-development": {"API scalability, observability, reliability", "backend services powering applications and APIs", "multi-tenant API gateway and BFF layer"},
	"scripting-tooling":       {"cross-platform portability, dependency management, ergonomics", "developer productivity and automation tooling landscape", "cross-platform CLI with plugin architecture"},
	"analytics-data-viz":      {"real-time streaming, large-scale aggregation, interactive UX", "data-driven decision-making environments", "real-time analytics dashboard at scale"},
	"computer-graphics":       {"rendering performance, memory bandwidth, shader compilation", "visual computing and rendering ecosystems", "GPU-accelerated rendering engine"},
	"webassembly":             {"sandboxing, ABI compatibility, performance across browsers", "portable high-performance modules in the web platform", "WASM-accelerated image processing in-browser"},
	"tauri":                   {"desktop integration, secure IPC, cross-platform packaging", "secure cross-platform desktop app ecosystem", "Rust-based desktop app with secure updater"},
	"javascript":              {"single-threaded concurrency, bundling, runtime differences", "web and server runtimes with rich ecosystem", "isomorphic web app with SSR and hydration"},
	"typescript":              {"type system design, incremental builds, API evolution", "typed JS development for large-scale applications", "type-safe monorepo with incremental builds"},
	"go":                      {"concurrency patterns, memory profiling, deployment footprints", "cloud-native services and tooling ecosystem", "high-throughput message processing service"},
	"rust":                    {"ownership, borrow checking, FFI and performance", "safety-critical and performance-oriented systems", "memory-safe systems component with FFI"},
	"payment-systems":         {"idempotency, PCI compliance, reconciliation", "financial transaction processing and settlement", "PCI-compliant payment orchestration service"},
	"devops":                  {"CI/CD pipelines, infrastructure as code, observability", "software delivery and operations culture", "GitOps-managed multi-cluster deployment"},
	"software-distribution":   {"update channels, code signing, artifact management", "packaging, updates, and delivery channels", "signed auto-update channel with delta patches"},
	"generative-ai":           {"model serving, safety controls, cost/performance trade-offs", "AI-assisted creation and automation platforms", "LLM-powered coding assistant service"},
	"app-development":         {"cross-platform consistency, offline-first, app store policies", "mobile and cross-platform application ecosystems", "cross-platform app with offline-first sync"},
}

// Older spellings some content tables still use.
var profileAliases = map[string]string{
	"analytics-data-visualization": "analytics-data-viz",
	"web-assembly":                 "webassembly",
	"golang":                       "go",
}

func lookupProfile(name string) (domainProfile, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := profileAliases[key]; ok {
		key = alias
	}
	p, ok := domainProfiles[key]
	return p, ok
}

// TechnicalChallenges returns the context's constraints joined with commas,
// or the known challenges of the domain, or a generic list.
func (c *Context) TechnicalChallenges() string {
	if len(c.Constraints) > 0 {
		return strings.Join(c.Constraints, ", ")
	}
	if p, ok := lookupProfile(c.Name); ok {
		return p.challenges
	}
	return "scalability, maintainability, performance"
}

// BusinessContext describes the market the domain operates in.
func (c *Context) BusinessContext() string {
	if p, ok := lookupProfile(c.Name); ok {
		return p.business
	}
	return "modern software development environment"
}

// CaseStudy names a representative system for the domain.
func (c *Context) CaseStudy() string {
	if p, ok := lookupProfile(c.Name); ok {
		return p.caseStudy
	}
	return "enterprise system modernization"
}
