package activity

import "strings"

// Locale selects the language of generated activity text.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleFrench  Locale = "fr"
)

// ParseLocale maps a config value onto a supported locale, defaulting to
// English for anything unrecognized.
func ParseLocale(s string) Locale {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fr", "fr-fr", "french", "français":
		return LocaleFrench
	default:
		return LocaleEnglish
	}
}

// templateKey selects a sentence template.
type templateKey struct {
	entity string
	action ActionKind
}

// pagePattern labels every path under prefix.
type pagePattern struct {
	prefix string
	label  string
}

// catalog holds the sentence templates and page labels of one locale.
// Templates use {entity}, {actor}, {page}, {action} and {element}
// placeholders; the first three become bracketed tokens.
type catalog struct {
	templates     map[templateKey]string
	generic       map[ActionKind]string
	navigation    string
	unknownAction string

	entityPlaceholder string
	actorPlaceholder  string

	pages    map[string]string
	patterns []pagePattern

	// deepLinkPrefixes are the resource paths for which "{path} ({name})"
	// renders as deepLinkLabel followed by the name.
	deepLinkPrefixes []string
	deepLinkLabel    string
}

var englishCatalog = &catalog{
	templates: map[templateKey]string{
		{EntityTask, ActionCreate}:     "The task {entity} was created by {actor}",
		{EntityTask, ActionEdit}:       "The task {entity} was modified by {actor}",
		{EntityTask, ActionDelete}:     "The task {entity} was deleted by {actor}",
		{EntityCategory, ActionCreate}: "The category {entity} was created by {actor}",
		{EntityCategory, ActionEdit}:   "The category {entity} was modified by {actor}",
		{EntityCategory, ActionDelete}: "The category {entity} was deleted by {actor}",
		{EntityProject, ActionCreate}:  "The project {entity} was created by {actor}",
		{EntityProject, ActionEdit}:    "The project {entity} was modified by {actor}",
		{EntityProject, ActionDelete}:  "The project {entity} was deleted by {actor}",
	},
	generic: map[ActionKind]string{
		ActionCreate: "The element {entity} was created by {actor}",
		ActionEdit:   "The element {entity} was modified by {actor}",
		ActionDelete: "The element {entity} was deleted by {actor}",
	},
	navigation:    "{actor} navigated to {page}",
	unknownAction: "Action {action} performed by {actor} on {element}",

	entityPlaceholder: "element",
	actorPlaceholder:  "User",

	pages: map[string]string{
		"/":              "Home",
		"/dashboard":     "Dashboard",
		"/projects":      "Projects",
		"/todos":         "Tasks",
		"/categories":    "Categories",
		"/profile":       "Profile",
		"/notifications": "Notifications",
		"/friends":       "Friends",
		"/invitations":   "Invitations",

		"/admin":          "Administration",
		"/admin/activity": "Activities",
		"/admin/users":    "Users",
		"/admin/projects": "Admin projects",
		"/admin/settings": "Admin settings",

		"/auth/login":           "Login",
		"/auth/register":        "Sign up",
		"/auth/logout":          "Logout",
		"/auth/forgot-password": "Forgot password",
		"/auth/reset-password":  "Password reset",
		"/auth/verify":          "Verification",

		"/help":          "Help",
		"/about":         "About",
		"/contact":       "Contact",
		"/settings":      "Settings",
		"/privacy":       "Privacy",
		"/terms":         "Terms",
		"/features":      "Features",
		"/pricing":       "Pricing",
		"/documentation": "Documentation",
		"/tutorials":     "Tutorials",
		"/blog":          "Blog",
		"/careers":       "Careers",
		"/partners":      "Partners",
		"/press":         "Press",
		"/status":        "Status",
		"/maintenance":   "Maintenance",
		"/security":      "Security",
		"/legal":         "Legal notice",
		"/cookies":       "Cookies",
		"/gdpr":          "GDPR",
	},
	patterns: []pagePattern{
		{"/todos/", "Project"},
		{"/projects/", "Project details"},
		{"/share/", "Share"},
		{"/admin/", "Administration"},
	},
	deepLinkPrefixes: []string{"/todos/", "/projects/"},
	deepLinkLabel:    "Project",
}

var frenchCatalog = &catalog{
	templates: map[templateKey]string{
		{EntityTask, ActionCreate}:     "La tâche {entity} a été créée par {actor}",
		{EntityTask, ActionEdit}:       "La tâche {entity} a été modifiée par {actor}",
		{EntityTask, ActionDelete}:     "La tâche {entity} a été supprimée par {actor}",
		{EntityCategory, ActionCreate}: "La catégorie {entity} a été créée par {actor}",
		{EntityCategory, ActionEdit}:   "La catégorie {entity} a été modifiée par {actor}",
		{EntityCategory, ActionDelete}: "La catégorie {entity} a été supprimée par {actor}",
		{EntityProject, ActionCreate}:  "Le projet {entity} a été créé par {actor}",
		{EntityProject, ActionEdit}:    "Le projet {entity} a été modifié par {actor}",
		{EntityProject, ActionDelete}:  "Le projet {entity} a été supprimé par {actor}",
	},
	generic: map[ActionKind]string{
		ActionCreate: "L'élément {entity} a été créé par {actor}",
		ActionEdit:   "L'élément {entity} a été modifié par {actor}",
		ActionDelete: "L'élément {entity} a été supprimé par {actor}",
	},
	navigation:    "{actor} a navigué vers {page}",
	unknownAction: "Action {action} effectuée par {actor} sur {element}",

	entityPlaceholder: "élément",
	actorPlaceholder:  "Utilisateur",

	pages: map[string]string{
		"/":              "Accueil",
		"/dashboard":     "Tableau de bord",
		"/projects":      "Projets",
		"/todos":         "Tâches",
		"/categories":    "Catégories",
		"/profile":       "Profil",
		"/notifications": "Notifications",
		"/friends":       "Amis",
		"/invitations":   "Invitations",

		"/admin":          "Administration",
		"/admin/activity": "Activités",
		"/admin/users":    "Utilisateurs",
		"/admin/projects": "Projets Admin",
		"/admin/settings": "Paramètres Admin",

		"/auth/login":           "Connexion",
		"/auth/register":        "Inscription",
		"/auth/logout":          "Déconnexion",
		"/auth/forgot-password": "Mot de passe oublié",
		"/auth/reset-password":  "Réinitialisation",
		"/auth/verify":          "Vérification",

		"/help":          "Aide",
		"/about":         "À propos",
		"/contact":       "Contact",
		"/settings":      "Paramètres",
		"/privacy":       "Confidentialité",
		"/terms":         "Conditions",
		"/features":      "Fonctionnalités",
		"/pricing":       "Tarifs",
		"/documentation": "Documentation",
		"/tutorials":     "Tutoriels",
		"/blog":          "Blog",
		"/careers":       "Carrières",
		"/partners":      "Partenaires",
		"/press":         "Presse",
		"/status":        "Statut",
		"/maintenance":   "Maintenance",
		"/security":      "Sécurité",
		"/legal":         "Mentions légales",
		"/cookies":       "Cookies",
		"/gdpr":          "RGPD",
	},
	patterns: []pagePattern{
		{"/todos/", "Projet"},
		{"/projects/", "Détails du projet"},
		{"/share/", "Partage"},
		{"/admin/", "Administration"},
	},
	deepLinkPrefixes: []string{"/todos/", "/projects/"},
	deepLinkLabel:    "Projet",
}

// catalogFor returns the catalog of a locale.
func catalogFor(l Locale) *catalog {
	if l == LocaleFrench {
		return frenchCatalog
	}
	return englishCatalog
}
