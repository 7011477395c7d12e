package planner

import "github.com/fentz26/planora/internal/models"

// Stage is one archetype step of a category template. Hours are calibrated
// to the template's base duration and scaled at generation time.
type Stage struct {
	Title       string
	Description string
	Hours       float64
	Priority    models.Priority // empty means positional default
	Parallel    bool            // may run alongside the preceding stage
	Category    string
	SubStages   []Stage // expansion used for long durations
}

// Template is the ordered stage list for one goal category.
type Template struct {
	Category string
	BaseDays int
	Stages   []Stage
}

// Descriptions may carry {goal} and {subject} placeholders, filled in from
// the request at generation time.
var templates = []Template{
	{
		Category: "software-launch",
		BaseDays: 21,
		Stages: []Stage{
			{
				Title:       "Market Research & User Analysis",
				Description: "Identify the target audience, analyze competing products, and validate product-market fit. Collect user requirements and pain points to anchor the scope.",
				Hours:       16,
				Category:    "Research",
				SubStages: []Stage{
					{Title: "Competitor & Market Scan", Description: "Survey competing products, pricing, and positioning to find the gap this launch fills.", Hours: 8},
					{Title: "User Interviews & Requirements", Description: "Interview prospective users, capture requirements and pain points, and rank them by impact.", Hours: 8},
				},
			},
			{
				Title:       "Product Requirements & Scope",
				Description: "Write the requirements document: features, user stories, acceptance criteria, and technical constraints. Cut the scope down to a shippable MVP.",
				Hours:       20,
				Category:    "Planning",
			},
			{
				Title:       "UI/UX Design & Prototyping",
				Description: "Design wireframes and interactive prototypes, settle the navigation structure, and establish the design system.",
				Hours:       32,
				Priority:    models.PriorityHigh,
				Category:    "Design",
				SubStages: []Stage{
					{Title: "Design Research", Description: "Gather design references and user flow requirements before drafting screens.", Hours: 10},
					{Title: "Design Draft", Description: "Produce wireframes and high-fidelity mockups for every core screen.", Hours: 14},
					{Title: "Design Review", Description: "Review prototypes with stakeholders and fold feedback into the final design system.", Hours: 8},
				},
			},
			{
				Title:       "Backend Development & API",
				Description: "Build server-side logic, the API surface, and the data model. Stand up infrastructure with error handling and logging in place.",
				Hours:       40,
				Priority:    models.PriorityHigh,
				Parallel:    true,
				Category:    "Development",
				SubStages: []Stage{
					{Title: "API Implementation", Description: "Implement the service endpoints and request validation against the agreed contract.", Hours: 16},
					{Title: "Data Layer & Storage", Description: "Design the schema, wire persistence, and cover the data layer with tests.", Hours: 14},
					{Title: "Infrastructure & Deployment Setup", Description: "Provision hosting, configure environments, and automate deployment.", Hours: 10},
				},
			},
			{
				Title:       "Frontend Development & Integration",
				Description: "Implement the client screens from the designs, integrate with the backend API, and tune performance.",
				Hours:       48,
				Priority:    models.PriorityHigh,
				Category:    "Development",
				SubStages: []Stage{
					{Title: "Screen Implementation", Description: "Build each screen from the design system with state management in place.", Hours: 20},
					{Title: "API Integration", Description: "Connect the client to the backend, covering loading, error, and offline states.", Hours: 16},
					{Title: "Polish & Performance", Description: "Profile slow paths, trim startup time, and smooth animations and transitions.", Hours: 12},
				},
			},
			{
				Title:       "Testing & Quality Assurance",
				Description: "Run unit, integration, and UI test passes plus a security review. Fix what falls out before the release candidate.",
				Hours:       24,
				Priority:    models.PriorityHigh,
				Category:    "Testing",
			},
			{
				Title:       "Store Preparation & Submission",
				Description: "Prepare store listings, screenshots, and promotional copy. Configure store settings and submit the build for review.",
				Hours:       12,
				Category:    "Publishing",
			},
			{
				Title:       "Marketing Campaign & Launch",
				Description: "Run the launch campaign, coordinate announcements, engage early users, and watch the first feedback and analytics.",
				Hours:       16,
				Category:    "Marketing",
			},
		},
	},
	{
		Category: "event-planning",
		BaseDays: 14,
		Stages: []Stage{
			{
				Title:       "Event Concept & Budget",
				Description: "Define objectives, audience, theme, and format for {goal}. Draft the budget and the overall event strategy.",
				Hours:       8,
				Category:    "Planning",
			},
			{
				Title:       "Venue Selection & Booking",
				Description: "Shortlist venues, run site visits, check capacity and amenities, negotiate terms, and secure the booking.",
				Hours:       12,
				Category:    "Logistics",
			},
			{
				Title:       "Vendor Coordination",
				Description: "Book catering, AV equipment, and decoration services, and confirm every vendor contract.",
				Hours:       16,
				Category:    "Logistics",
				SubStages: []Stage{
					{Title: "Catering Arrangements", Description: "Select the caterer, settle the menu, and confirm dietary accommodations.", Hours: 6},
					{Title: "AV & Equipment", Description: "Arrange sound, projection, staging, and on-site technical support.", Hours: 5},
					{Title: "Decoration & Setup Services", Description: "Book decorators and agree the setup and teardown schedule.", Hours: 5},
				},
			},
			{
				Title:       "Guest Management & Invitations",
				Description: "Build the guest list, send invitations, track RSVPs, and arrange seating and dietary requirements.",
				Hours:       10,
				Parallel:    true,
				Category:    "Communications",
			},
			{
				Title:       "Program & Run Sheet",
				Description: "Lay out the event timeline, confirm speakers or performers, and walk every stakeholder through the run sheet.",
				Hours:       8,
				Priority:    models.PriorityHigh,
				Category:    "Planning",
			},
			{
				Title:       "Event Execution",
				Description: "Oversee setup, coordinate vendors and staff on the day, keep the timeline on track, and handle issues as they come up.",
				Hours:       12,
				Category:    "Execution",
			},
		},
	},
	{
		Category: "learning",
		BaseDays: 30,
		Stages: []Stage{
			{
				Title:       "Foundation & Environment Setup for {subject}",
				Description: "Install the tools, set up a working environment, and cover the basic syntax and core concepts of {subject} through beginner tutorials.",
				Hours:       12,
				Category:    "Learning",
			},
			{
				Title:       "Intermediate Concepts & Practice",
				Description: "Work through intermediate {subject} material with structured courses, exercises, and small practice projects.",
				Hours:       24,
				Priority:    models.PriorityHigh,
				Category:    "Learning",
				SubStages: []Stage{
					{Title: "Structured Course Work", Description: "Complete an intermediate {subject} course end to end, taking notes on the hard parts.", Hours: 12},
					{Title: "Exercises & Small Projects", Description: "Reinforce each topic with exercises and a couple of small self-contained projects.", Hours: 12},
				},
			},
			{
				Title:       "Advanced Topics & Real-world Code",
				Description: "Study advanced {subject} topics, best practices, and design patterns. Read real-world code and work on harder problems.",
				Hours:       20,
				Category:    "Practice",
				SubStages: []Stage{
					{Title: "Advanced Topic Deep Dives", Description: "Pick the advanced {subject} areas that matter for your goals and study them in depth.", Hours: 12},
					{Title: "Real-world Problem Practice", Description: "Solve non-trivial problems and review idiomatic {subject} codebases.", Hours: 8},
				},
			},
			{
				Title:       "Capstone Project & Portfolio",
				Description: "Build a complete {subject} project that demonstrates the skill, document it, and publish it to your portfolio.",
				Hours:       16,
				Category:    "Portfolio",
			},
		},
	},
	{
		Category: "research",
		BaseDays: 30,
		Stages: []Stage{
			{
				Title:       "Topic Selection & Literature Review",
				Description: "Pin down the research question, review the existing literature, identify the gap, and compile an annotated bibliography.",
				Hours:       20,
				Category:    "Research",
				SubStages: []Stage{
					{Title: "Research Question Definition", Description: "Narrow the topic to a precise, answerable research question with a theoretical framing.", Hours: 8},
					{Title: "Literature Survey", Description: "Read and annotate the relevant prior work and map where this study fits.", Hours: 12},
				},
			},
			{
				Title:       "Methodology Design",
				Description: "Design the methodology and data collection instruments, set the sampling strategy, and prepare any approvals required.",
				Hours:       12,
				Category:    "Planning",
			},
			{
				Title:       "Data Collection & Analysis",
				Description: "Collect data per the methodology, clean and organize it, run the analysis, and interpret the results with supporting visualizations.",
				Hours:       24,
				Priority:    models.PriorityHigh,
				Category:    "Research",
				SubStages: []Stage{
					{Title: "Data Collection", Description: "Execute the collection plan and log deviations from the methodology.", Hours: 12},
					{Title: "Analysis & Interpretation", Description: "Clean the dataset, run the planned analysis, and chart the findings.", Hours: 12, Priority: models.PriorityHigh},
				},
			},
			{
				Title:       "Writing & Documentation",
				Description: "Write the full paper from introduction through conclusion, with figures, tables, and citations in the required format.",
				Hours:       20,
				Priority:    models.PriorityHigh,
				Category:    "Writing",
				SubStages: []Stage{
					{Title: "Draft Core Sections", Description: "Draft every section of the paper from the analysis notes.", Hours: 12},
					{Title: "Figures, Tables & Citations", Description: "Produce final figures and tables and verify every citation.", Hours: 8},
				},
			},
			{
				Title:       "Review, Revision & Submission",
				Description: "Proofread, fold in peer feedback, verify formatting compliance, and submit the final version.",
				Hours:       12,
				Category:    "Finalization",
			},
		},
	},
	{
		Category: "generic-project",
		BaseDays: 14,
		Stages: []Stage{
			{
				Title:       "Planning & Requirements",
				Description: "Define objectives, gather requirements, identify stakeholders, and establish success criteria for: {goal}",
				Hours:       10,
				Category:    "Planning",
			},
			{
				Title:       "Research & Preparation",
				Description: "Do the necessary research, gather resources, surface likely obstacles, and prepare the approach for: {goal}",
				Hours:       12,
				Category:    "Research",
			},
			{
				Title:       "Implementation Phase 1",
				Description: "Start core execution, put the foundations in place, and validate the approach for: {goal}",
				Hours:       16,
				Category:    "Development",
				SubStages: []Stage{
					{Title: "Foundations", Description: "Set up the groundwork and the first working slice of: {goal}", Hours: 8},
					{Title: "Core Build-out", Description: "Implement the main components and validate them against the plan for: {goal}", Hours: 8},
				},
			},
			{
				Title:       "Implementation Phase 2",
				Description: "Continue the build, integrate the pieces, resolve the issues found so far, and finish the bulk of the work for: {goal}",
				Hours:       16,
				Category:    "Development",
				SubStages: []Stage{
					{Title: "Integration", Description: "Bring the completed components together into one working whole for: {goal}", Hours: 8},
					{Title: "Issue Resolution", Description: "Work down the list of defects and gaps identified during the build of: {goal}", Hours: 8},
				},
			},
			{
				Title:       "Testing & Quality Check",
				Description: "Verify every requirement is met, fix what is not, and hold the result to the agreed quality bar for: {goal}",
				Hours:       12,
				Category:    "Testing",
			},
			{
				Title:       "Finalization & Documentation",
				Description: "Close out remaining items, write the documentation, and prepare the deliverables for: {goal}",
				Hours:       10,
				Category:    "Finalization",
			},
			{
				Title:       "Delivery & Completion",
				Description: "Deliver the final output, gather feedback, and formally close out: {goal}",
				Hours:       8,
				Category:    "Completion",
			},
		},
	},
}

// templateFor returns the template for a category, falling back to the
// generic template so generation never fails on an unknown category.
func templateFor(category string) Template {
	for _, t := range templates {
		if t.Category == category {
			return t
		}
	}
	return templates[len(templates)-1]
}

// Categories lists every category with a dedicated template, generic last.
func Categories() []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.Category
	}
	return out
}
