package nav

// Paths de navegación bien conocidos.
const (
	PathLogin       = "/login"
	PathRegister    = "/register"
	PathLinkAccount = "/link-account"
	PathHome        = "/home"
	PathProfile     = "/profile"
	PathStatus      = "/status"
)

// Routes es la tabla de rutas de la aplicación con su flag requiresAuth.
var Routes = []Route{
	{Path: PathLogin, RequiresAuth: false},
	{Path: PathRegister, RequiresAuth: false},
	{Path: PathLinkAccount, RequiresAuth: false},
	{Path: PathHome, RequiresAuth: true},
	{Path: PathProfile, RequiresAuth: true},
	{Path: PathStatus, RequiresAuth: false},
}

// Lookup busca una ruta por path. El segundo retorno indica si existe.
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
