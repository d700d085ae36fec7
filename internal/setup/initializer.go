package setup

import "fmt"

const initializerFile = "EmbraceInitializer.swift"

func initializerPath(target string) string {
	return target + "/" + initializerFile
}

func initializerSource(appID string) string {
	return fmt.Sprintf(`import Foundation
import EmbraceIO

@objcMembers class EmbraceInitializer: NSObject {
    static func start() -> Void {
        do {
            try Embrace
                .setup(
                    options: Embrace.Options(
                        appId: %q,
                        platform: .reactNative
                    )
                )
                .start()
        } catch let e {
            print("Error starting Embrace \(e.localizedDescription)")
        }
    }
}
`, appID)
}
