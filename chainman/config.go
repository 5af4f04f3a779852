package chainman

type Config struct {
	// URL is the URL of the EVM node
	URL string

	// CustodyContractAddress is the deployed custody contract address in hex string
	CustodyContractAddress string

	// PrivateKey is the hex-encoded key of the account operating the custody contract
	PrivateKey string

	// ChainID of the chain the custody contract lives on
	ChainID int64
}
