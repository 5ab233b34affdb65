// Package handlers provides HTTP request handling
package handlers

// RPC method constants for standardized method naming
const (
	// Job methods
	JobPost               = "job.post"
	JobGet                = "job.get"
	JobList               = "job.list"
	JobUpdate             = "job.update"
	JobTake               = "job.take"
	JobApply              = "job.apply"
	JobPayStart           = "job.payStart"
	JobDeliver            = "job.deliver"
	JobClose              = "job.close"
	JobRefund             = "job.refund"
	JobReopen             = "job.reopen"
	JobDispute            = "job.dispute"
	JobArbitrate          = "job.arbitrate"
	JobRefuseArbitration  = "job.refuseArbitration"
	JobWithdrawCollateral = "job.withdrawCollateral"
	JobWhitelistAdd       = "job.whitelistAdd"
	JobWhitelistRemove    = "job.whitelistRemove"
	JobWhitelist          = "job.whitelist"
	JobMessage            = "job.message"
	JobRate               = "job.rate"
	JobEvents             = "job.events"
	JobRevision           = "job.revision"

	// User methods
	UserRegister = "user.register"
	UserUpdate   = "user.update"
	UserGet      = "user.get"
	UserList     = "user.list"
	UserReviews  = "user.reviews"

	// Arbitrator methods
	ArbitratorRegister = "arbitrator.register"
	ArbitratorGet      = "arbitrator.get"
	ArbitratorList     = "arbitrator.list"

	// Balance methods
	BalanceGet      = "balance.get"
	BalanceDeposit  = "balance.deposit"
	BalanceWithdraw = "balance.withdraw"
)

// IsJobMethod checks if the given method is a job operation
func IsJobMethod(method string) bool {
	switch method {
	case JobPost, JobGet, JobList, JobUpdate, JobTake, JobApply, JobPayStart, JobDeliver,
		JobClose, JobRefund, JobReopen, JobDispute, JobArbitrate, JobRefuseArbitration,
		JobWithdrawCollateral, JobWhitelistAdd, JobWhitelistRemove, JobWhitelist,
		JobMessage, JobRate, JobEvents, JobRevision:
		return true
	default:
		return false
	}
}

// IsUserMethod checks if the given method is a user operation
func IsUserMethod(method string) bool {
	switch method {
	case UserRegister, UserUpdate, UserGet, UserList, UserReviews:
		return true
	default:
		return false
	}
}

// IsArbitratorMethod checks if the given method is an arbitrator operation
func IsArbitratorMethod(method string) bool {
	switch method {
	case ArbitratorRegister, ArbitratorGet, ArbitratorList:
		return true
	default:
		return false
	}
}

// IsBalanceMethod checks if the given method is a balance operation
func IsBalanceMethod(method string) bool {
	switch method {
	case BalanceGet, BalanceDeposit, BalanceWithdraw:
		return true
	default:
		return false
	}
}

// IsReadMethod reports whether method only reads state. Every other method needs a signed request.
func IsReadMethod(method string) bool {
	switch method {
	case JobGet, JobList, JobWhitelist, JobEvents, JobRevision,
		UserGet, UserList, UserReviews,
		ArbitratorGet, ArbitratorList,
		BalanceGet:
		return true
	default:
		return false
	}
}
