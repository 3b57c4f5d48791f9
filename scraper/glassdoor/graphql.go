package glassdoor

import "glassdoor-scraper/models"

const (
	graphPath     = "/graph"
	operationName = "JobSearchResultsQuery"
)

type graphRequest struct {
	OperationName string          `json:"operationName"`
	Variables     searchVariables `json:"variables"`
	Query         string          `json:"query"`
}

type searchVariables struct {
	ExcludeJobListingIDs []int64  `json:"excludeJobListingIds"`
	FilterParams         []string `json:"filterParams"`
	Keyword              string   `json:"keyword"`
	NumJobsToShow        int      `json:"numJobsToShow"`
	LocationType         string   `json:"locationType"`
	LocationID           int64    `json:"locationId"`
	ParameterURLInput    string   `json:"parameterUrlInput"`
	PageNumber           int      `json:"pageNumber"`
	PageCursor           *string  `json:"pageCursor"`
	Offset               int      `json:"offset"`
	Sort                 string   `json:"sort"`
}

type graphResponse struct {
	Data *struct {
		JobListings struct {
			JobListings []struct {
				Jobview models.RawRecord `json:"jobview"`
			} `json:"jobListings"`
			PaginationCursors []struct {
				Cursor     string `json:"cursor"`
				PageNumber int    `json:"pageNumber"`
			} `json:"paginationCursors"`
			TotalJobsCount int `json:"totalJobsCount"`
		} `json:"jobListings"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

const searchQuery = `
query JobSearchResultsQuery(
    $excludeJobListingIds: [Long!],
    $keyword: String,
    $locationId: Int,
    $locationType: LocationTypeEnum,
    $numJobsToShow: Int!,
    $pageCursor: String,
    $pageNumber: Int,
    $filterParams: [FilterParams],
    $originalPageUrl: String,
    $seoFriendlyUrlInput: String,
    $parameterUrlInput: String,
    $seoUrl: Boolean
) {
    jobListings(
        contextHolder: {
            searchParams: {
                excludeJobListingIds: $excludeJobListingIds,
                keyword: $keyword,
                locationId: $locationId,
                locationType: $locationType,
                numPerPage: $numJobsToShow,
                pageCursor: $pageCursor,
                pageNumber: $pageNumber,
                filterParams: $filterParams,
                originalPageUrl: $originalPageUrl,
                seoFriendlyUrlInput: $seoFriendlyUrlInput,
                parameterUrlInput: $parameterUrlInput,
                seoUrl: $seoUrl,
                searchType: SR
            }
        }
    ) {
        jobListings {
            jobview {
                header {
                    ageInDays
                    divisionEmployerName
                    easyApply
                    employer { id name shortName __typename }
                    employerNameFromSearch
                    jobLink
                    jobTitleText
                    locationName
                    locationType
                    payPeriod
                    payPeriodAdjustedPay { p10 p50 p90 __typename }
                    payCurrency
                    rating
                    __typename
                }
                job { description listingId jobTitleText __typename }
                overview { shortName squareLogoUrl __typename }
                __typename
            }
            __typename
        }
        paginationCursors { cursor pageNumber __typename }
        totalJobsCount
        __typename
    }
}`
