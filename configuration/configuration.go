package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	HttpsEnabled      bool   `usage:"serve HTTPS"`
	HttpsSelfsigned   bool   `usage:"serve HTTPS with a self-signed certificate"`
	EnableCompression bool   `usage:"gzip responses when the client accepts it"`
	ApiKey            string `usage:"API key required in X-Api-Key, empty disables authentication"`
	ApiSecret         string `usage:"API secret required in X-Api-Secret"`
	Backend           string `usage:"document backend: embedded or mongo"`
	Dir               string `usage:"data directory for the embedded backend"`
	Storage           string `usage:"embedded storage engine: json, bolt or memory"`
	MongoUri          string `usage:"MongoDB connection string"`
	MongoDatabase     string `usage:"MongoDB database holding the collections"`
	StoresFile        string `usage:"JSON file with store definitions"`
	Version           bool   `usage:"show version and exit"`
	ShowBanner        bool   `usage:"show big banner"`
	ShowConfig        bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:      "127.0.0.1:8080",
		Backend:       "embedded",
		Dir:           "data",
		Storage:       "json",
		MongoUri:      "mongodb://127.0.0.1:27017",
		MongoDatabase: "kvlens",
		StoresFile:    "stores.json",
		ShowBanner:    true,
	}
}
