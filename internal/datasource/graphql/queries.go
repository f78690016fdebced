package graphql

// Names of the console list documents
const (
	DocListDatasets                 = "listDatasets"
	DocListEnvironmentGroups        = "listEnvironmentGroups"
	DocListOrganizationEnvironments = "listOrganizationEnvironments"
	DocListDatasetShareObjects      = "listDatasetShareObjects"
	DocListWorksheets               = "listWorksheets"
	DocListDashboardShares          = "listDashboardShares"
	DocSearchGlossary               = "searchGlossary"
)

var consoleDocuments = []Document{
	{
		Name:  DocListDatasets,
		Field: "listDatasets",
		Query: `query ListDatasets($filter: DatasetFilter) {
  listDatasets(filter: $filter) {
    count
    page
    pages
    hasNext
    hasPrevious
    nodes {
      datasetUri
      label
      name
      description
      owner
      created
      region
      tags
      SamlAdminGroupName
      userRoleForDataset
      environment { environmentUri label }
      organization { organizationUri label }
    }
  }
}`,
	},
	{
		Name:  DocListEnvironmentGroups,
		Field: "listEnvironmentGroups",
		Query: `query listEnvironmentGroups($filter: GroupFilter, $environmentUri: String!) {
  listEnvironmentGroups(environmentUri: $environmentUri, filter: $filter) {
    count
    page
    pages
    hasNext
    hasPrevious
    nodes {
      groupUri
      invitedBy
      created
      description
      environmentIAMRoleArn
      environmentIAMRoleName
      environmentAthenaWorkGroup
    }
  }
}`,
	},
	{
		Name:  DocListOrganizationEnvironments,
		Field: "getOrganization.environments",
		Query: `query getOrg($organizationUri: String, $filter: EnvironmentFilter) {
  getOrganization(organizationUri: $organizationUri) {
    environments(filter: $filter) {
      count
      page
      pageSize
      hasNext
      pages
      hasPrevious
      nodes {
        environmentUri
        label
        name
        description
        owner
        region
        SamlGroupName
        created
        tags
        environmentType
        AwsAccountId
        userRoleInEnvironment
      }
    }
  }
}`,
	},
	{
		Name:  DocListDatasetShareObjects,
		Field: "getDataset.shares",
		Query: `query ListDatasetShareObjects($datasetUri: String!, $filter: ShareObjectFilter) {
  getDataset(datasetUri: $datasetUri) {
    shares(filter: $filter) {
      page
      pages
      pageSize
      hasPrevious
      hasNext
      count
      nodes {
        shareUri
        created
        owner
        status
        userRoleForShareObject
        statistics { tables locations }
        principal { principalId principalType principalName SamlGroupName }
      }
    }
  }
}`,
	},
	{
		Name:  DocListWorksheets,
		Field: "listWorksheets",
		Query: `query ListWorksheets($filter: WorksheetFilter) {
  listWorksheets(filter: $filter) {
    count
    page
    pages
    hasNext
    hasPrevious
    nodes {
      worksheetUri
      label
      description
      tags
      owner
      created
      userRoleForWorksheet
      SamlAdminGroupName
    }
  }
}`,
	},
	{
		// selects count and nodes only; page fields are derived from the filter
		Name:  DocListDashboardShares,
		Field: "listDashboardShares",
		Query: `query listDashboardShares($dashboardUri: String!, $filter: DashboardShareFilter!) {
  listDashboardShares(dashboardUri: $dashboardUri, filter: $filter) {
    count
    nodes {
      dashboardUri
      shareUri
      SamlGroupName
      owner
      created
      status
    }
  }
}`,
	},
	{
		Name:  DocSearchGlossary,
		Field: "searchGlossary",
		Query: `query SearchGlossary($filter: GlossaryNodeSearchFilter) {
  searchGlossary(filter: $filter) {
    count
    page
    pages
    hasNext
    hasPrevious
    nodes {
      __typename
      ... on Glossary { nodeUri parentUri label readme created owner path }
      ... on Category { nodeUri parentUri label readme created owner path }
      ... on Term { nodeUri parentUri label readme created owner path }
    }
  }
}`,
	},
}
