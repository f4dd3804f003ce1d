package api

// Endpoint is the stable tag a resource's cache keys start with.
type Endpoint string

const (
	EndpointMe                Endpoint = "ME"
	EndpointAudits            Endpoint = "AUDITS"
	EndpointClients           Endpoint = "CLIENTS"
	EndpointClientsAll        Endpoint = "CLIENTS_ALL"
	EndpointPatients          Endpoint = "PATIENTS"
	EndpointProviders         Endpoint = "PROVIDERS"
	EndpointZipCodes          Endpoint = "ZIP_CODES"
	EndpointStates            Endpoint = "STATES"
	EndpointStatesList        Endpoint = "STATES_LIST"
	EndpointPrograms          Endpoint = "PROGRAMS"
	EndpointProgramConditions Endpoint = "PROGRAM_CONDITIONS"
	EndpointAssignee          Endpoint = "ASSIGNEE"
	EndpointUnderProgramVital Endpoint = "UNDER_PROGRAM_VITAL"
)

var paths = map[Endpoint]string{
	EndpointMe:                "/providers/me",
	EndpointAudits:            "/audits",
	EndpointClients:           "/clients",
	EndpointClientsAll:        "/clients/all",
	EndpointPatients:          "/patients",
	EndpointProviders:         "/providers",
	EndpointZipCodes:          "/postal-codes",
	EndpointStates:            "/states",
	EndpointStatesList:        "/programs/states",
	EndpointPrograms:          "/programs",
	EndpointProgramConditions: "/programs/conditions",
	EndpointAssignee:          "/programs/partners",
	EndpointUnderProgramVital: "/programs/vitals",
}

// Path returns the REST path for e, "" for unknown endpoints.
func (e Endpoint) Path() string { return paths[e] }

func (e Endpoint) String() string { return string(e) }

// Endpoints lists every known endpoint in declaration order.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointMe, EndpointAudits, EndpointClients, EndpointClientsAll,
		EndpointPatients, EndpointProviders, EndpointZipCodes, EndpointStates,
		EndpointStatesList, EndpointPrograms, EndpointProgramConditions,
		EndpointAssignee, EndpointUnderProgramVital,
	}
}
